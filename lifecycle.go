package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
	"gitlab.com/tinyland/lab/perf-pulse/export"
	"gitlab.com/tinyland/lab/perf-pulse/history"
)

// Exit codes returned by monitor.run.
const (
	exitOK          = 0
	exitExportError = 1
	exitFatal       = 2
)

// displayStopTimeout bounds how long shutdown waits for the display to
// release the terminal after its context is cancelled.
const displayStopTimeout = 3 * time.Second

// Display is the foreground surface. Run blocks until the surface is closed
// or ctx is cancelled, both of which return nil.
type Display interface {
	Run(ctx context.Context) error
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(ctx context.Context) error

// Run implements Display.
func (f DisplayFunc) Run(ctx context.Context) error { return f(ctx) }

// monitor wires the collection loop, the display and the exporter together
// and owns shutdown ordering.
type monitor struct {
	store    *history.Store
	runner   *collectors.Runner
	display  Display
	exporter export.Exporter
	logger   *slog.Logger

	// out receives the one-line export result shown to the user.
	out io.Writer

	exportOnce sync.Once
	exportRes  export.Result
	exportErr  error
}

// run starts the collection loop in the background and the display in the
// foreground, then waits for the first of: the display closing, ctx being
// cancelled, or a fatal loop error. Whatever ends the session, the loop is
// stopped and the event log exported exactly once before run returns.
func (m *monitor) run(ctx context.Context) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatal error
	if err := m.runner.Start(ctx); err != nil {
		fatal = fmt.Errorf("start collector: %w", err)
	} else {
		fatal = m.supervise(ctx, cancel)
	}

	code := exitOK
	if fatal != nil {
		m.logger.Error("session ended with error", "error", fatal)
		code = exitFatal
	}

	res, err := m.exportFinal(context.WithoutCancel(ctx))
	if err != nil {
		m.logger.Error("export failed", "error", err)
		if m.out != nil {
			fmt.Fprintf(m.out, "Export failed: %v\n", err)
		}
		if code == exitOK {
			code = exitExportError
		}
	} else {
		m.logger.Info("export complete", "path", res.Path, "rows", res.Rows, "noop", res.NoOp)
		if m.out != nil {
			fmt.Fprintln(m.out, res.String())
		}
	}

	m.logSummary()
	return code
}

// supervise runs the display and blocks until the session ends. It returns
// the fatal error that ended it, if any. On return the collection loop has
// stopped and the display has returned or been given up on.
func (m *monitor) supervise(ctx context.Context, cancel context.CancelFunc) error {
	displayDone := make(chan error, 1)
	go func() { displayDone <- m.runDisplay(ctx) }()

	var fatal error
	displayReturned := false

	select {
	case err := <-displayDone:
		displayReturned = true
		if err != nil {
			fatal = fmt.Errorf("display: %w", err)
		} else {
			m.logger.Info("display closed")
		}
	case <-ctx.Done():
		m.logger.Info("interrupted, shutting down")
	case err := <-m.runner.Err():
		fatal = err
	}

	cancel()
	m.runner.Stop()

	if !displayReturned {
		select {
		case err := <-displayDone:
			if err != nil && fatal == nil {
				fatal = fmt.Errorf("display: %w", err)
			}
		case <-time.After(displayStopTimeout):
			m.logger.Warn("display did not stop in time", "timeout", displayStopTimeout)
		}
	}
	return fatal
}

// runDisplay runs the display and converts a panic into an error so the
// export still happens.
func (m *monitor) runDisplay(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.display.Run(ctx)
}

// exportNow writes the current event log. It backs the dashboard's export
// key and may run any number of times.
func (m *monitor) exportNow(ctx context.Context) (export.Result, error) {
	res, err := m.exporter.Export(ctx, m.store.ExportLog())
	if err != nil {
		m.logger.Warn("on-demand export failed", "error", err)
		return res, err
	}
	m.logger.Info("on-demand export", "path", res.Path, "rows", res.Rows)
	return res, nil
}

// exportFinal writes the event log once. Later calls return the first
// result.
func (m *monitor) exportFinal(ctx context.Context) (export.Result, error) {
	m.exportOnce.Do(func() {
		m.exportRes, m.exportErr = m.exporter.Export(ctx, m.store.ExportLog())
	})
	return m.exportRes, m.exportErr
}

// logSummary logs loop counters and lifetime quantiles.
func (m *monitor) logSummary() {
	stats := m.runner.Stats()
	q := m.store.Stats()
	m.logger.Info("session summary",
		"samples", m.store.Len(),
		"ticks", stats.Ticks,
		"skipped", stats.Skipped,
		"cpu_p95", q.CPU.P95,
		"cpu_max", q.CPU.Max,
		"memory_p95", q.Memory.P95,
		"memory_max", q.Memory.Max,
	)
}
