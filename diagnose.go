package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
	"gitlab.com/tinyland/lab/perf-pulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/perf-pulse/config"
)

// runDiagnostics reads every sensor once, reports which ones work, and checks
// the report target. It returns 0 when everything needed for a session is
// available.
func runDiagnostics(ctx context.Context, w io.Writer, src sysmetrics.Source, cfg *config.Config) int {
	fmt.Fprintln(w, "perf-pulse diagnostics")
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintln(w)

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	failed := 0
	check := func(name string, read func() (string, error)) {
		fmt.Fprintf(w, "   %-18s ", name+":")
		start := time.Now()
		val, err := read()
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %v\n", err)
			return
		}
		fmt.Fprintf(w, "ok    %s (%dms)\n", val, time.Since(start).Milliseconds())
	}

	fmt.Fprintln(w, "Sensors")
	fmt.Fprintln(w, "------------------------------------------------------------")
	check("CPU", func() (string, error) {
		v, err := src.CPUPercent(ctx, cfg.CPUSampleWindow.Duration)
		return fmt.Sprintf("%.2f%%", v), err
	})
	check("Memory", func() (string, error) {
		v, err := src.MemoryPercent(ctx)
		return fmt.Sprintf("%.2f%%", v), err
	})
	check("Network counters", func() (string, error) {
		sent, recv, err := src.NetIOCounters(ctx)
		return fmt.Sprintf("sent %.2f MB, recv %.2f MB",
			collectors.BytesToMB(sent), collectors.BytesToMB(recv)), err
	})
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Session")
	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintf(w, "   Refresh interval:  %s\n", cfg.RefreshInterval.Duration)
	fmt.Fprintf(w, "   History capacity:  %d\n", cfg.HistoryCapacity)
	fmt.Fprintf(w, "   Report:            %s (%s)\n", cfg.ReportFile, cfg.ReportFormat)
	fmt.Fprintf(w, "   Sensor timeout:    %s\n", cfg.SensorTimeout.Duration)
	fmt.Fprintln(w)

	if failed > 0 {
		fmt.Fprintf(w, "%d sensor(s) unavailable; affected ticks will be skipped.\n", failed)
		return 1
	}
	fmt.Fprintln(w, "All sensors available.")
	return 0
}
