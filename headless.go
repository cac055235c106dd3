package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
	"gitlab.com/tinyland/lab/perf-pulse/history"
)

const (
	consoleHeaderFormat = "%-10s | %-10s | %-10s | %-15s | %-15s\n"
	consoleRowFormat    = "%-10s | %-10.2f | %-10.2f | %-15.2f | %-15.2f\n"
)

// snapshotter is the read side of the history store.
type snapshotter interface {
	Snapshot() history.Snapshot
}

// console is the headless Display. It prints each new sample as a fixed
// width table row and runs until ctx is cancelled.
type console struct {
	source snapshotter
	out    io.Writer
	period time.Duration
}

func newConsole(source snapshotter, out io.Writer, period time.Duration) *console {
	if period <= 0 {
		period = collectors.DefaultPeriod
	}
	return &console{source: source, out: out, period: period}
}

// Run implements Display.
func (c *console) Run(ctx context.Context) error {
	header := fmt.Sprintf(consoleHeaderFormat, "Time", "CPU (%)", "Memory (%)", "Net Sent (MB)", "Net Recv (MB)")
	if _, err := io.WriteString(c.out, header+strings.Repeat("-", len(header)-1)+"\n"); err != nil {
		return fmt.Errorf("console: write header: %w", err)
	}

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := c.source.Snapshot()
			if snap.Count <= printed {
				continue
			}
			printed = snap.Count
			if err := c.printRow(snap.Latest); err != nil {
				return err
			}
		}
	}
}

func (c *console) printRow(s collectors.Sample) error {
	_, err := fmt.Fprintf(c.out, consoleRowFormat,
		s.Clock(), s.CPUPercent, s.MemoryPercent, s.NetSentMB, s.NetRecvMB)
	if err != nil {
		return fmt.Errorf("console: write row: %w", err)
	}
	return nil
}
