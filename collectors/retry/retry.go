// Package retry provides a circuit breaker for samplers. A sensor that keeps
// failing is not probed on every tick: after MaxFailures consecutive sensor
// errors the breaker opens and short-circuits reads until a backoff elapses,
// then lets a single probe through.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; every tick reads the sensor.
	StateClosed State = iota
	// StateOpen means the sensor failed too often; reads are skipped.
	StateOpen
	// StateHalfOpen lets one probe read through to test recovery.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the circuit breaker behavior.
type Config struct {
	// MaxFailures is the number of consecutive sensor errors before opening.
	MaxFailures int
	// ResetTimeout is the initial wait before a probe is allowed.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier grows ResetTimeout each time a probe fails.
	BackoffMultiplier float64
	// Logger for breaker transitions. Nil is safe.
	Logger *slog.Logger
}

// DefaultConfig returns a breaker tuned for a sampler ticking every period.
// The circuit opens after three failed ticks and probes again after five
// periods, backing off to at most one minute.
func DefaultConfig(period time.Duration) Config {
	return Config{
		MaxFailures:       3,
		ResetTimeout:      5 * period,
		MaxResetTimeout:   time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats holds circuit breaker counters for external inspection.
type Stats struct {
	State            State
	ConsecutiveFails int
	TotalFailures    int
	TotalSuccesses   int
	ShortCircuited   int
	CurrentTimeout   time.Duration
}

// Breaker wraps a collectors.Sampler. Only errors wrapping
// collectors.ErrSensorUnavailable count as failures; any other error passes
// through untouched so the collection loop can treat it as fatal.
type Breaker struct {
	sampler collectors.Sampler
	config  Config
	logger  *slog.Logger
	now     func() time.Time

	mu             sync.Mutex
	state          State
	failures       int
	openedAt       time.Time
	currentTimeout time.Duration
	totalFailures  int
	totalSuccesses int
	shortCircuited int
}

// New wraps sampler with circuit breaker logic.
func New(sampler collectors.Sampler, cfg Config) *Breaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	if cfg.MaxResetTimeout < cfg.ResetTimeout {
		cfg.MaxResetTimeout = cfg.ResetTimeout
	}
	return &Breaker{
		sampler:        sampler,
		config:         cfg,
		logger:         logger,
		now:            time.Now,
		state:          StateClosed,
		currentTimeout: cfg.ResetTimeout,
	}
}

// Sample implements collectors.Sampler.
func (b *Breaker) Sample(ctx context.Context) (collectors.Sample, error) {
	b.mu.Lock()
	if b.state == StateOpen {
		elapsed := b.now().Sub(b.openedAt)
		if elapsed < b.currentTimeout {
			b.shortCircuited++
			remaining := b.currentTimeout - elapsed
			b.mu.Unlock()
			return collectors.Sample{}, fmt.Errorf("%w: circuit open, retry in %s",
				collectors.ErrSensorUnavailable, remaining.Truncate(time.Millisecond))
		}
		b.state = StateHalfOpen
		b.logger.Info("sensor circuit half-open, probing")
	}
	b.mu.Unlock()

	s, err := b.sampler.Sample(ctx)
	switch {
	case err == nil:
		b.recordSuccess()
	case errors.Is(err, collectors.ErrSensorUnavailable):
		b.recordFailure()
	}
	return s, err
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.totalFailures++

	switch {
	case b.state == StateHalfOpen:
		b.currentTimeout = time.Duration(float64(b.currentTimeout) * b.config.BackoffMultiplier)
		if b.currentTimeout > b.config.MaxResetTimeout {
			b.currentTimeout = b.config.MaxResetTimeout
		}
		b.open()
		b.logger.Warn("sensor circuit re-opened after failed probe",
			"failures", b.failures,
			"next_timeout", b.currentTimeout,
		)
	case b.failures >= b.config.MaxFailures:
		b.currentTimeout = b.config.ResetTimeout
		b.open()
		b.logger.Warn("sensor circuit opened",
			"failures", b.failures,
			"timeout", b.currentTimeout,
		)
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.logger.Info("sensor circuit closed after successful probe")
	}
	b.state = StateClosed
	b.failures = 0
	b.totalSuccesses++
	b.currentTimeout = b.config.ResetTimeout
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:            b.state,
		ConsecutiveFails: b.failures,
		TotalFailures:    b.totalFailures,
		TotalSuccesses:   b.totalSuccesses,
		ShortCircuited:   b.shortCircuited,
		CurrentTimeout:   b.currentTimeout,
	}
}

// Compile-time check: Breaker satisfies the Sampler interface.
var _ collectors.Sampler = (*Breaker)(nil)
