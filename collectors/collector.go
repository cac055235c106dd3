// Package collectors defines the host sample model and the periodic
// collection loop for perf-pulse. A Sampler reads the metrics source once
// per tick; the Runner drives it at a fixed period and hands every
// successful Sample to a Recorder.
package collectors

import (
	"context"
)

// Sampler is the interface implemented by metrics sources.
type Sampler interface {
	// Sample reads the current host counters. The call may block for a short
	// fixed window (CPU utilization is measured over an interval) and that
	// delay counts against the collection period.
	//
	// Transient read failures must be reported as errors wrapping
	// ErrSensorUnavailable. Any other error is treated as fatal by the Runner.
	Sample(ctx context.Context) (Sample, error)
}

// SamplerFunc adapts an ordinary function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (Sample, error)

// Sample calls f(ctx).
func (f SamplerFunc) Sample(ctx context.Context) (Sample, error) {
	return f(ctx)
}

// Recorder receives every successfully collected Sample.
type Recorder interface {
	Record(s Sample)
}
