package chain

import (
	"sync"
	"time"
)

// Circuit breaker states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// BreakerConfig holds the parameters for a circuit breaker.
type BreakerConfig struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxAttempts int
}

// Breaker stops calling a provider after consecutive failures. Once
// ResetTimeout has passed it admits at most HalfOpenMaxAttempts trial calls
// at a time until one fails or enough succeed.
type Breaker struct {
	mu              sync.Mutex
	state           string
	failures        int
	successes       int
	trials          int
	lastFailureTime time.Time
	config          BreakerConfig
	now             func() time.Time
}

// NewBreaker creates a breaker. A threshold below one is raised to one.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.HalfOpenMaxAttempts <= 0 {
		cfg.HalfOpenMaxAttempts = 1
	}
	return &Breaker{
		state:  StateClosed,
		config: cfg,
		now:    time.Now,
	}
}

// Allow returns true if an attempt should be made.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailureTime) > b.config.ResetTimeout {
			b.state = StateHalfOpen
			b.successes = 0
			b.trials = 1
			return true
		}
		return false
	case StateHalfOpen:
		if b.trials >= b.config.HalfOpenMaxAttempts {
			return false
		}
		b.trials++
		return true
	default:
		return true
	}
}

// RecordSuccess records a successful attempt.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateHalfOpen {
		if b.trials > 0 {
			b.trials--
		}
		b.successes++
		if b.successes >= b.config.HalfOpenMaxAttempts {
			b.state = StateClosed
			b.trials = 0
		}
		return
	}
	b.state = StateClosed
}

// RecordFailure records a failed attempt.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureTime = b.now()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.trials = 0
		return
	}
	if b.failures >= b.config.FailureThreshold {
		b.state = StateOpen
	}
}

// State returns the current state.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
