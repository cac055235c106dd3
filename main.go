// perf-pulse samples host CPU, memory and network counters on a fixed
// period, shows them as live charts, and writes the full session to a
// report when it ends.
//
// Usage:
//
//	perf-pulse [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: ~/.config/perf-pulse/config.yaml)
//	-interval dur     Sampling and redraw period (default 1s)
//	-capacity int     Samples kept per live chart (default 100)
//	-output string    Report path (default report.csv)
//	-format string    Report format: csv or sqlite (default csv)
//	-headless         Print samples as a table instead of the dashboard
//	-demo             Use synthetic data instead of host sensors
//	-diagnose         Read every sensor once and exit
//	-verbose          Enable debug logging
//	-version          Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
	"gitlab.com/tinyland/lab/perf-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/perf-pulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/perf-pulse/config"
	"gitlab.com/tinyland/lab/perf-pulse/display/tui"
	"gitlab.com/tinyland/lab/perf-pulse/export"
	"gitlab.com/tinyland/lab/perf-pulse/history"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// options are the parsed command line flags.
type options struct {
	configPath  string
	interval    time.Duration
	capacity    int
	output      string
	format      string
	headless    bool
	demo        bool
	diagnose    bool
	verbose     bool
	showVersion bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("perf-pulse", flag.ContinueOnError)
	o := &options{set: make(map[string]bool)}

	fs.StringVar(&o.configPath, "config", "", "Path to configuration file (default: ~/.config/perf-pulse/config.yaml)")
	fs.DurationVar(&o.interval, "interval", 0, "Sampling and redraw period (default 1s)")
	fs.IntVar(&o.capacity, "capacity", 0, "Samples kept per live chart (default 100)")
	fs.StringVar(&o.output, "output", "", "Report path (default report.csv)")
	fs.StringVar(&o.format, "format", "", "Report format: csv or sqlite")
	fs.BoolVar(&o.headless, "headless", false, "Print samples as a table instead of the dashboard")
	fs.BoolVar(&o.demo, "demo", false, "Use synthetic data instead of host sensors")
	fs.BoolVar(&o.diagnose, "diagnose", false, "Read every sensor once and exit")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// loadConfig reads the config file and applies explicit flags on top.
func loadConfig(o *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadConfig(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.set["interval"] {
		cfg.RefreshInterval = config.Duration{Duration: o.interval}
	}
	if o.set["capacity"] {
		cfg.HistoryCapacity = o.capacity
	}
	if o.set["output"] {
		cfg.ReportFile = o.output
	}
	if o.set["format"] {
		cfg.ReportFormat = o.format
	}
	if o.headless {
		cfg.Headless = true
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	// A window as long as the period would leave no time between reads.
	if o.set["interval"] && cfg.CPUSampleWindow.Duration >= cfg.RefreshInterval.Duration {
		cfg.CPUSampleWindow = config.Duration{Duration: cfg.RefreshInterval.Duration / 10}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func realMain(args []string) int {
	o, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFatal
	}

	if o.showVersion {
		fmt.Printf("perf-pulse %s (%s) built %s\n", version, commit, date)
		return exitOK
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "perf-pulse: %v\n", err)
		return exitFatal
	}

	if o.diagnose {
		return runDiagnostics(context.Background(), os.Stdout, sysmetrics.HostSource{}, cfg)
	}

	// The dashboard needs a terminal; anything else gets the table.
	headless := cfg.Headless || !term.IsTerminal(os.Stdout.Fd())

	logger, closeLog := newLogger(cfg, headless)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := newMonitor(cfg, o.demo, headless, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "perf-pulse: %v\n", err)
		return exitFatal
	}

	logger.Info("perf-pulse starting",
		"version", version,
		"interval", cfg.RefreshInterval.Duration,
		"capacity", cfg.HistoryCapacity,
		"report", cfg.ReportFile,
		"format", cfg.ReportFormat,
		"headless", headless,
		"demo", o.demo,
	)
	return m.run(ctx)
}

// newMonitor builds the store, sampler, loop, exporter and display for a
// session.
func newMonitor(cfg *config.Config, demo, headless bool, logger *slog.Logger) (*monitor, error) {
	exporter, err := export.New(cfg.ReportFormat, cfg.ReportFile)
	if err != nil {
		return nil, err
	}

	var sampler collectors.Sampler
	if demo {
		sampler = collectors.NewSyntheticSampler()
	} else {
		host := sysmetrics.New(sysmetrics.Config{
			CPUWindow: cfg.CPUSampleWindow.Duration,
			Timeout:   cfg.SensorTimeout.Duration,
		}, nil, logger)
		bcfg := retry.DefaultConfig(cfg.RefreshInterval.Duration)
		bcfg.Logger = logger
		sampler = retry.New(host, bcfg)
	}

	store := history.New(cfg.HistoryCapacity)
	m := &monitor{
		store:    store,
		runner:   collectors.NewRunner(sampler, store, cfg.RefreshInterval.Duration, logger),
		exporter: exporter,
		logger:   logger,
		out:      os.Stdout,
	}

	if headless {
		m.display = newConsole(store, os.Stdout, cfg.RefreshInterval.Duration)
	} else {
		m.display = tui.NewProgram(tui.Options{
			Source:  store,
			Refresh: cfg.RefreshInterval.Duration,
			Export:  m.exportNow,
		}, logger)
	}
	return m, nil
}

// newLogger returns the process logger. Headless sessions log to stderr; the
// dashboard owns the terminal, so interactive sessions log to a file. The
// returned func closes the file.
func newLogger(cfg *config.Config, headless bool) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	if headless {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}
	}

	path := cfg.LogPath()
	var w io.Writer = io.Discard
	closeFn := func() {}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
			closeFn = func() { f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(w, opts)), closeFn
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
