package collectors

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// ScriptedSampler replays a fixed sequence of results, one per call. Once the
// script is exhausted it keeps returning the last entry. Useful for driving
// the collection loop deterministically in tests.
type ScriptedSampler struct {
	mu    sync.Mutex
	steps []ScriptStep
	calls int
}

// ScriptStep is one scripted Sample call.
type ScriptStep struct {
	Sample Sample
	Err    error
	// Delay is slept before returning, to simulate the CPU window.
	Delay time.Duration
}

// NewScriptedSampler returns a sampler that replays steps in order.
func NewScriptedSampler(steps ...ScriptStep) *ScriptedSampler {
	return &ScriptedSampler{steps: steps}
}

// Sample implements Sampler.
func (s *ScriptedSampler) Sample(ctx context.Context) (Sample, error) {
	s.mu.Lock()
	if len(s.steps) == 0 {
		s.calls++
		s.mu.Unlock()
		return Sample{}, fmt.Errorf("scripted sampler: empty script: %w", ErrSensorUnavailable)
	}
	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	step := s.steps[idx]
	s.calls++
	s.mu.Unlock()

	if step.Delay > 0 {
		select {
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		case <-time.After(step.Delay):
		}
	}
	return step.Sample, step.Err
}

// Calls returns how many times Sample has been called.
func (s *ScriptedSampler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SyntheticSampler produces smooth fake readings without touching the host.
// It backs the -demo mode so the dashboard can be shown on machines where
// the real counters are unavailable.
type SyntheticSampler struct {
	mu   sync.Mutex
	step int
	sent float64
	recv float64
	now  func() time.Time
}

// NewSyntheticSampler returns a SyntheticSampler using the wall clock.
func NewSyntheticSampler() *SyntheticSampler {
	return &SyntheticSampler{now: time.Now}
}

// Sample implements Sampler.
func (s *SyntheticSampler) Sample(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	x := float64(s.step)
	s.step++

	cpu := 45 + 35*math.Sin(x/7) + 8*math.Sin(x/1.7)
	mem := 55 + 10*math.Sin(x/23)
	s.sent += 0.05 + 0.04*math.Abs(math.Sin(x/5))
	s.recv += 0.20 + 0.15*math.Abs(math.Cos(x/9))

	return Sample{
		Time:          s.now().Truncate(time.Second),
		CPUPercent:    clampPercent(cpu),
		MemoryPercent: clampPercent(mem),
		NetSentMB:     s.sent,
		NetRecvMB:     s.recv,
	}, nil
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Compile-time interface compliance checks.
var (
	_ Sampler = (*ScriptedSampler)(nil)
	_ Sampler = (*SyntheticSampler)(nil)
)
