package jobs

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed allows requests to pass through.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects requests immediately.
	BreakerOpen

	// BreakerHalfOpen lets a limited number of probes through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int `mapstructure:"max_failures"`

	// ResetTimeout is how long the circuit stays open before probing.
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// HalfOpenMaxCalls is the number of successful probes needed to close again.
	HalfOpenMaxCalls int `mapstructure:"half_open_max_calls"`
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker guards the queue database so that a failing store does not pile up
// blocked submissions.
type Breaker struct {
	mu           sync.Mutex
	state        BreakerState
	failureCount int
	successCount int
	inFlight     int
	lastFailure  time.Time
	config       BreakerConfig
	logger       zerolog.Logger
	name         string
	now          func() time.Time
}

func NewBreaker(name string, config BreakerConfig, logger zerolog.Logger) *Breaker {
	def := DefaultBreakerConfig()
	if config.MaxFailures <= 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = def.ResetTimeout
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return &Breaker{
		state:  BreakerClosed,
		config: config,
		logger: logger.With().Str("circuit_breaker", name).Logger(),
		name:   name,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed. Callers that were allowed must
// report the outcome with RecordSuccess or RecordFailure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) < b.config.ResetTimeout {
			return false
		}
		b.state = BreakerHalfOpen
		b.successCount = 0
		b.inFlight = 0
		b.logger.Info().Msg("Circuit breaker transitioning to half-open")
		fallthrough
	case BreakerHalfOpen:
		if b.successCount+b.inFlight >= b.config.HalfOpenMaxCalls {
			return false
		}
		b.inFlight++
		return true
	default:
		return false
	}
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failureCount = 0
	case BreakerHalfOpen:
		b.inFlight = max(b.inFlight-1, 0)
		b.successCount++
		if b.successCount >= b.config.HalfOpenMaxCalls {
			b.state = BreakerClosed
			b.failureCount = 0
			b.successCount = 0
			b.logger.Info().Msg("Circuit breaker closing after successful recovery")
		}
	}
}

func (b *Breaker) RecordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = b.now()

	b.logger.Error().Err(err).Int("failure_count", b.failureCount).Msg("Circuit breaker recording failure")

	switch b.state {
	case BreakerClosed:
		if b.failureCount >= b.config.MaxFailures {
			b.state = BreakerOpen
			b.logger.Warn().
				Int("failure_count", b.failureCount).
				Dur("reset_timeout", b.config.ResetTimeout).
				Msg("Circuit breaker opening after max failures")
		}
	case BreakerHalfOpen:
		// any failure while probing reopens
		b.state = BreakerOpen
		b.successCount = 0
		b.inFlight = 0
		b.logger.Warn().Msg("Circuit breaker re-opening after failure in half-open state")
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failureCount = 0
	b.successCount = 0
	b.inFlight = 0
	b.logger.Info().Msg("Circuit breaker manually reset to closed state")
}
