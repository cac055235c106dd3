// Package sysmetrics provides the local host sampler for perf-pulse.
// It reads CPU utilization, memory usage and cumulative network counters
// through a Source (gopsutil by default) and turns them into a
// collectors.Sample.
package sysmetrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

const (
	// DefaultCPUWindow is how long a CPU reading blocks to measure
	// utilization. It is part of every tick's budget.
	DefaultCPUWindow = 100 * time.Millisecond

	// DefaultTimeout bounds a whole Sample call.
	DefaultTimeout = 5 * time.Second
)

// Config tunes a Collector.
type Config struct {
	// CPUWindow is the CPU measurement interval. Zero means DefaultCPUWindow.
	CPUWindow time.Duration

	// Timeout bounds a Sample call. Zero disables the bound, so a hung
	// source blocks the collection loop indefinitely.
	Timeout time.Duration
}

// DefaultConfig returns the Config used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		CPUWindow: DefaultCPUWindow,
		Timeout:   DefaultTimeout,
	}
}

// Collector implements collectors.Sampler on top of a Source.
type Collector struct {
	source    Source
	cpuWindow time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	// now is overridable for testing.
	now func() time.Time
}

// New creates a Collector. A nil source reads the local host; a nil logger
// discards output.
func New(cfg Config, source Source, logger *slog.Logger) *Collector {
	if source == nil {
		source = HostSource{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	window := cfg.CPUWindow
	if window <= 0 {
		window = DefaultCPUWindow
	}
	return &Collector{
		source:    source,
		cpuWindow: window,
		timeout:   cfg.Timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Sample reads the host counters once. Failures, timeouts and nonsensical
// readings are reported as collectors.ErrSensorUnavailable.
func (c *Collector) Sample(ctx context.Context) (collectors.Sample, error) {
	if c.timeout <= 0 {
		return c.read(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		sample collectors.Sample
		err    error
	}
	// Buffered so an abandoned read can still finish and exit.
	done := make(chan result, 1)
	go func() {
		s, err := c.read(ctx)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		return r.sample, r.err
	case <-ctx.Done():
		c.logger.Warn("sensor read timed out", "timeout", c.timeout)
		return collectors.Sample{}, fmt.Errorf("sysmetrics: read exceeded %s: %w: %w",
			c.timeout, collectors.ErrSensorUnavailable, ctx.Err())
	}
}

// read performs the three source reads in order.
func (c *Collector) read(ctx context.Context) (collectors.Sample, error) {
	ts := c.now().Truncate(time.Second)

	cpuPct, err := c.source.CPUPercent(ctx, c.cpuWindow)
	if err != nil {
		return collectors.Sample{}, unavailable("cpu percent", err)
	}
	if math.IsNaN(cpuPct) {
		return collectors.Sample{}, unavailable("cpu percent", fmt.Errorf("reading is NaN"))
	}

	memPct, err := c.source.MemoryPercent(ctx)
	if err != nil {
		return collectors.Sample{}, unavailable("memory percent", err)
	}
	if math.IsNaN(memPct) {
		return collectors.Sample{}, unavailable("memory percent", fmt.Errorf("reading is NaN"))
	}

	sent, recv, err := c.source.NetIOCounters(ctx)
	if err != nil {
		return collectors.Sample{}, unavailable("net io counters", err)
	}

	return collectors.Sample{
		Time:          ts,
		CPUPercent:    clampPercent(cpuPct),
		MemoryPercent: clampPercent(memPct),
		NetSentMB:     collectors.BytesToMB(sent),
		NetRecvMB:     collectors.BytesToMB(recv),
	}, nil
}

func unavailable(what string, err error) error {
	return fmt.Errorf("sysmetrics: read %s: %w: %w", what, collectors.ErrSensorUnavailable, err)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Compile-time interface compliance check.
var _ collectors.Sampler = (*Collector)(nil)
