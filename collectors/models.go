package collectors

import (
	"errors"
	"time"
)

// BytesPerMB is the divisor used to convert raw byte counters to megabytes.
const BytesPerMB = 1024 * 1024

// ClockLayout is the wall-clock format used for sample timestamps in the
// console output and in exported reports.
const ClockLayout = "15:04:05"

// ErrSensorUnavailable is returned by a Sampler when the metrics source could
// not be read. It is transient: the collection loop skips the tick and tries
// again on the next one.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// Sample is one instant's readings of the host counters.
type Sample struct {
	// Time is the wall-clock time of the reading, second resolution.
	Time time.Time `json:"time"`

	// CPUPercent is the system-wide CPU utilization (0-100).
	CPUPercent float64 `json:"cpu_percent"`

	// MemoryPercent is the share of physical memory in use (0-100).
	MemoryPercent float64 `json:"memory_percent"`

	// NetSentMB is the cumulative number of megabytes sent since boot.
	NetSentMB float64 `json:"net_sent_mb"`

	// NetRecvMB is the cumulative number of megabytes received since boot.
	NetRecvMB float64 `json:"net_recv_mb"`
}

// Clock returns the sample time formatted as HH:MM:SS.
func (s Sample) Clock() string {
	return s.Time.Format(ClockLayout)
}

// IsZero reports whether the sample carries no reading at all.
func (s Sample) IsZero() bool {
	return s == Sample{}
}

// BytesToMB converts a byte counter to megabytes.
func BytesToMB(b uint64) float64 {
	return float64(b) / BytesPerMB
}
