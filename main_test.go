package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
	"gitlab.com/tinyland/lab/perf-pulse/config"
	"gitlab.com/tinyland/lab/perf-pulse/display/tui"
	"gitlab.com/tinyland/lab/perf-pulse/export"
	"gitlab.com/tinyland/lab/perf-pulse/history"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-interval", "2s", "-format", "sqlite", "-headless", "-demo"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.interval != 2*time.Second || o.format != "sqlite" || !o.headless || !o.demo {
		t.Errorf("unexpected options: %+v", o)
	}
	if !o.set["interval"] || !o.set["format"] || o.set["capacity"] {
		t.Errorf("set flags = %v", o.set)
	}

	if _, err := parseFlags([]string{"-bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.HistoryCapacity = 50
	cfg.ReportFile = "from-file.csv"
	if err := config.SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	o, err := parseFlags([]string{"-config", path, "-output", "flag.db", "-format", "sqlite", "-verbose"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := loadConfig(o)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got.HistoryCapacity != 50 {
		t.Errorf("HistoryCapacity = %d, want file value 50", got.HistoryCapacity)
	}
	if got.ReportFile != "flag.db" || got.ReportFormat != "sqlite" {
		t.Errorf("report = %s (%s), want flag values", got.ReportFile, got.ReportFormat)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug with -verbose", got.LogLevel)
	}
}

func TestLoadConfig_ShortIntervalShrinksCPUWindow(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	o, err := parseFlags([]string{"-interval", "50ms"})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(o)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.CPUSampleWindow.Duration != 5*time.Millisecond {
		t.Errorf("CPUSampleWindow = %s, want 5ms", cfg.CPUSampleWindow.Duration)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tests := [][]string{
		{"-capacity", "0"},
		{"-format", "xml"},
		{"-output", ""},
	}
	for _, args := range tests {
		o, err := parseFlags(args)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(o); err == nil {
			t.Errorf("loadConfig(%v) should fail validation", args)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_InteractiveWritesFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "perf-pulse.log")

	logger, closeLog := newLogger(cfg, false)
	logger.Info("hello")
	closeLog()

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q", data)
	}
}

func TestNewMonitor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ReportFile = filepath.Join(t.TempDir(), "r.db")
	cfg.ReportFormat = "sqlite"

	m, err := newMonitor(cfg, true, true, discardLogger())
	if err != nil {
		t.Fatalf("newMonitor: %v", err)
	}
	if _, ok := m.exporter.(*export.SQLite); !ok {
		t.Errorf("exporter = %T, want *export.SQLite", m.exporter)
	}
	if _, ok := m.display.(*console); !ok {
		t.Errorf("headless display = %T, want *console", m.display)
	}
	if m.store.Capacity() != cfg.HistoryCapacity {
		t.Errorf("store capacity = %d", m.store.Capacity())
	}

	m, err = newMonitor(cfg, false, false, discardLogger())
	if err != nil {
		t.Fatalf("newMonitor: %v", err)
	}
	if _, ok := m.display.(*tui.Program); !ok {
		t.Errorf("interactive display = %T, want *tui.Program", m.display)
	}

	cfg.ReportFormat = "xml"
	if _, err := newMonitor(cfg, true, true, discardLogger()); err == nil {
		t.Error("expected error for unknown report format")
	}
}

func TestConsole_PrintsNewSamplesOnly(t *testing.T) {
	store := history.New(5)
	out := &bytes.Buffer{}
	c := newConsole(store, out, 2*time.Millisecond)

	store.Record(collectors.Sample{
		Time:          time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		CPUPercent:    12.345,
		MemoryPercent: 50,
		NetSentMB:     1.5,
		NetRecvMB:     1024,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and one row, got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "Time       | CPU (%)    |") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Trim(lines[1], "-") != "" || len(lines[1]) != len(lines[0]) {
		t.Errorf("rule = %q", lines[1])
	}
	want := "09:30:00   | 12.35      | 50.00      | 1.50            | 1024.00        "
	if lines[2] != want {
		t.Errorf("row = %q\nwant  %q", lines[2], want)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestConsole_WriteErrorIsFatal(t *testing.T) {
	c := newConsole(history.New(1), failingWriter{}, time.Millisecond)
	if err := c.Run(context.Background()); err == nil {
		t.Error("expected write error")
	}
}

// fakeSource is a scripted sysmetrics.Source.
type fakeSource struct {
	cpuErr error
}

func (f fakeSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	return 12.5, f.cpuErr
}

func (f fakeSource) MemoryPercent(ctx context.Context) (float64, error) {
	return 40, nil
}

func (f fakeSource) NetIOCounters(ctx context.Context) (uint64, uint64, error) {
	return collectors.BytesPerMB, 2 * collectors.BytesPerMB, nil
}

func TestRunDiagnostics(t *testing.T) {
	cfg := config.DefaultConfig()

	var out bytes.Buffer
	if code := runDiagnostics(context.Background(), &out, fakeSource{}, cfg); code != 0 {
		t.Errorf("exit code = %d, want 0\n%s", code, out.String())
	}
	for _, want := range []string{"12.50%", "40.00%", "sent 1.00 MB, recv 2.00 MB", "All sensors available"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if code := runDiagnostics(context.Background(), &out, fakeSource{cpuErr: errors.New("no /proc/stat")}, cfg); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "FAIL  no /proc/stat") {
		t.Errorf("expected failure line:\n%s", out.String())
	}
}
