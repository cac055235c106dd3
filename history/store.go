// Package history holds the sampled data shared between the collection loop
// and its readers: four bounded rolling series for live charts, an unbounded
// event log for export, and lifetime quantiles.
//
// The Store owns all of it. Readers only ever receive copies, so a reader
// can render or serialize for as long as it likes without holding a lock.
package history

import (
	"sync"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

// DefaultCapacity is the rolling series length used when none is configured.
const DefaultCapacity = 100

// Snapshot is a point-in-time copy of the rolling series.
type Snapshot struct {
	CPU     []float64
	Memory  []float64
	NetSent []float64
	NetRecv []float64

	// Latest is the most recent sample, zero if nothing was recorded yet.
	Latest collectors.Sample

	// Count is the number of samples in the event log.
	Count int

	// Stats are lifetime quantiles of the percentage metrics.
	Stats Stats
}

// Empty reports whether no sample has been recorded yet.
func (s Snapshot) Empty() bool {
	return s.Count == 0
}

// Store is the single shared mutable resource of the pipeline. Record is
// called by the collection loop; Snapshot and ExportLog by any reader.
type Store struct {
	mu sync.RWMutex

	capacity int
	cpu      *Ring
	memory   *Ring
	netSent  *Ring
	netRecv  *Ring
	log      []collectors.Sample

	cpuLife lifetime
	memLife lifetime
}

// New creates an empty Store whose rolling series hold capacity values.
// A capacity below 1 is raised to 1.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		cpu:      NewRing(capacity),
		memory:   NewRing(capacity),
		netSent:  NewRing(capacity),
		netRecv:  NewRing(capacity),
		cpuLife:  newLifetime(),
		memLife:  newLifetime(),
	}
}

// Capacity returns the rolling series capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

// Record appends one sample to all four series, the event log and the
// lifetime histograms in a single critical section. No reader observes a
// partial update.
func (s *Store) Record(sample collectors.Sample) {
	s.mu.Lock()
	s.cpu.Push(sample.CPUPercent)
	s.memory.Push(sample.MemoryPercent)
	s.netSent.Push(sample.NetSentMB)
	s.netRecv.Push(sample.NetRecvMB)
	s.log = append(s.log, sample)
	s.cpuLife.record(sample.CPUPercent)
	s.memLife.record(sample.MemoryPercent)
	s.mu.Unlock()
}

// Snapshot returns copies of the four rolling series. The lock is held only
// for the copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		CPU:     s.cpu.Values(),
		Memory:  s.memory.Values(),
		NetSent: s.netSent.Values(),
		NetRecv: s.netRecv.Values(),
		Count:   len(s.log),
		Stats: Stats{
			CPU:    s.cpuLife.quantiles(),
			Memory: s.memLife.quantiles(),
		},
	}
	if n := len(s.log); n > 0 {
		snap.Latest = s.log[n-1]
	}
	return snap
}

// ExportLog returns a copy of the full event log in arrival order.
func (s *Store) ExportLog() []collectors.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]collectors.Sample, len(s.log))
	copy(out, s.log)
	return out
}

// Len returns the number of samples in the event log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

// Stats returns the lifetime quantiles.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		CPU:    s.cpuLife.quantiles(),
		Memory: s.memLife.quantiles(),
	}
}

// Compile-time interface compliance check.
var _ collectors.Recorder = (*Store)(nil)
