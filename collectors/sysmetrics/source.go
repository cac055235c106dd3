package sysmetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Source is the operating-system metrics source. Only these three reads are
// needed; unit conversion happens in the Collector.
type Source interface {
	// CPUPercent returns system-wide CPU utilization measured over interval.
	// It blocks for interval.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)

	// MemoryPercent returns the share of physical memory in use.
	MemoryPercent(ctx context.Context) (float64, error)

	// NetIOCounters returns cumulative bytes sent and received across all
	// interfaces since boot.
	NetIOCounters(ctx context.Context) (sent, recv uint64, err error)
}

// HostSource reads the local host through gopsutil.
type HostSource struct{}

// CPUPercent implements Source.
func (HostSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("no cpu readings returned")
	}
	return pcts[0], nil
}

// MemoryPercent implements Source.
func (HostSource) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// NetIOCounters implements Source.
func (HostSource) NetIOCounters(ctx context.Context) (uint64, uint64, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if len(counters) == 0 {
		return 0, 0, fmt.Errorf("no network counters returned")
	}
	return counters[0].BytesSent, counters[0].BytesRecv, nil
}

// Compile-time interface compliance check.
var _ Source = HostSource{}
