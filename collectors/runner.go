package collectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultPeriod is the collection period used when none is configured.
	DefaultPeriod = time.Second

	// DefaultStopTimeout is the maximum time Stop() will wait for the loop
	// goroutine to finish its current tick before returning.
	DefaultStopTimeout = 5 * time.Second

	// errRepeatWindow is how long an identical sensor error is suppressed.
	errRepeatWindow = time.Hour
)

// State is the lifecycle state of a Runner.
type State int32

const (
	// StateIdle is the initial state, before Start.
	StateIdle State = iota
	// StateRunning means the loop goroutine is ticking.
	StateRunning
	// StateStopped is terminal.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// RunnerStats counts what the loop has done so far.
type RunnerStats struct {
	Ticks    int64 `json:"ticks"`
	Recorded int64 `json:"recorded"`
	Skipped  int64 `json:"skipped"`
}

// errTracker deduplicates repeated identical sensor errors.
type errTracker struct {
	lastMsg    string
	lastTime   time.Time
	suppressed int64
}

// Runner is the collection loop. It calls the Sampler once per period and
// records each successful Sample. Sensor failures skip the tick; anything
// else stops the loop and is reported on Err.
type Runner struct {
	sampler  Sampler
	recorder Recorder
	period   time.Duration
	logger   *slog.Logger

	// OnSample, when set before Start, is called after each successful Record.
	OnSample func(Sample)

	state   atomic.Int32
	cancel  context.CancelFunc
	stopped chan struct{}
	errCh   chan error
	once    sync.Once

	ticks    atomic.Int64
	recorded atomic.Int64
	skipped  atomic.Int64

	errs errTracker // only touched by the loop goroutine
}

// NewRunner creates an idle Runner. A non-positive period falls back to
// DefaultPeriod. If logger is nil, a no-op logger is used.
func NewRunner(sampler Sampler, recorder Recorder, period time.Duration, logger *slog.Logger) *Runner {
	if period <= 0 {
		period = DefaultPeriod
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		sampler:  sampler,
		recorder: recorder,
		period:   period,
		logger:   logger,
		stopped:  make(chan struct{}),
		errCh:    make(chan error, 1),
	}
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Period returns the configured collection period.
func (r *Runner) Period() time.Duration {
	return r.period
}

// Stats returns a copy of the loop counters.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Ticks:    r.ticks.Load(),
		Recorded: r.recorded.Load(),
		Skipped:  r.skipped.Load(),
	}
}

// Err delivers at most one fatal error. It is never closed.
func (r *Runner) Err() <-chan error {
	return r.errCh
}

// Done is closed once the loop goroutine has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.stopped
}

// Start launches the loop goroutine and returns immediately. The first tick
// runs right away. The provided context bounds the loop's lifetime; Stop
// cancels it as well.
func (r *Runner) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("collectors: runner already %s", r.State())
	}

	ctx, r.cancel = context.WithCancel(ctx)
	go r.run(ctx)

	r.logger.Debug("collector loop started", "period", r.period)
	return nil
}

// Stop cancels the loop and waits for the tick in progress to finish, with a
// timeout to prevent indefinite blocking on a hung sensor. Stop is safe to
// call more than once and on a Runner that was never started.
func (r *Runner) Stop() {
	if r.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		r.once.Do(func() { close(r.stopped) })
		return
	}

	if r.cancel != nil {
		r.cancel()
	}

	select {
	case <-r.stopped:
	case <-time.After(DefaultStopTimeout):
		r.logger.Warn("collector loop stop timed out", "timeout", DefaultStopTimeout)
	}
}

// run is the loop goroutine. Cancellation is checked once per tick; a tick
// that has started always completes.
func (r *Runner) run(ctx context.Context) {
	defer func() {
		r.state.Store(int32(StateStopped))
		r.once.Do(func() { close(r.stopped) })
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		if err := r.tick(ctx); err != nil {
			r.logger.Error("collector loop failed", "error", err)
			r.errCh <- err
			return
		}

		// Sleep only for what is left of the period; a slow tick rolls
		// straight into the next one without building a backlog.
		wait := r.period - time.Since(start)
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick performs one sample-and-record cycle. It returns a non-nil error only
// for fatal conditions.
func (r *Runner) tick(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("collectors: sampler panic: %v", p)
		}
	}()

	r.ticks.Add(1)

	// The read is detached from loop cancellation so that a tick in progress
	// is not abandoned during shutdown.
	s, err := r.sampler.Sample(context.WithoutCancel(ctx))
	if err != nil {
		if errors.Is(err, ErrSensorUnavailable) {
			r.skipped.Add(1)
			r.logSensorError(err)
			return nil
		}
		return fmt.Errorf("collectors: sample: %w", err)
	}

	r.recorder.Record(s)
	r.recorded.Add(1)
	if r.OnSample != nil {
		r.OnSample(s)
	}

	r.logger.Debug("sample recorded",
		"time", s.Clock(),
		"cpu", fmt.Sprintf("%.2f", s.CPUPercent),
		"memory", fmt.Sprintf("%.2f", s.MemoryPercent),
		"net_sent_mb", fmt.Sprintf("%.2f", s.NetSentMB),
		"net_recv_mb", fmt.Sprintf("%.2f", s.NetRecvMB),
	)
	return nil
}

// logSensorError deduplicates repeated identical sensor errors. If the same
// message recurs within an hour it is suppressed, with a summary every 100
// suppressions. A sensor that keeps failing every second would otherwise
// flood the log file.
func (r *Runner) logSensorError(err error) {
	msg := err.Error()
	now := time.Now()
	t := &r.errs

	if msg == t.lastMsg && now.Sub(t.lastTime) < errRepeatWindow {
		t.suppressed++
		if t.suppressed%100 == 0 {
			r.logger.Warn("skipping tick, sensor error repeated", "error", err, "repeats", t.suppressed)
		}
		return
	}
	if t.suppressed > 0 {
		r.logger.Warn("previous sensor error repeated", "repeats", t.suppressed)
	}
	r.logger.Warn("skipping tick, sensor unavailable", "error", err)
	t.lastMsg = msg
	t.lastTime = now
	t.suppressed = 0
}
