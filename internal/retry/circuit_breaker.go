package retry

import (
	"errors"
	"time"
)

// ErrCircuitOpen is returned by CircuitBreaker.Call while the breaker is
// open and its recovery timeout hasn't elapsed.
var ErrCircuitOpen = errors.New("retry: circuit breaker is open")

// CircuitState is the breaker's current admission state.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreakerConfig configures a CircuitBreaker, adapted from
// internal/concurrency/backoff.go.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitBreaker trips open after FailureThreshold consecutive failures,
// admits a probe after RecoveryTimeout, and closes again after
// SuccessThreshold consecutive probe successes. It is independent of
// retry.Policy; no package outside internal/retry uses it.
type CircuitBreaker struct {
	cfg          CircuitBreakerConfig
	state        CircuitState
	failures     int
	successes    int
	lastFailTime time.Time
}

// NewCircuitBreaker constructs a CircuitBreaker, filling zero-valued
// fields with conservative defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout == 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 3
	}
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed}
}

// Call executes fn under circuit-breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.canExecute() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) canExecute() bool {
	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailTime) >= cb.cfg.RecoveryTimeout {
			cb.state = CircuitHalfOpen
			cb.successes = 0
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	switch cb.state {
	case CircuitClosed:
		if err != nil {
			cb.failures++
			cb.lastFailTime = time.Now()
			if cb.failures >= cb.cfg.FailureThreshold {
				cb.state = CircuitOpen
			}
		} else {
			cb.failures = 0
		}
	case CircuitHalfOpen:
		if err != nil {
			cb.state = CircuitOpen
			cb.failures++
			cb.lastFailTime = time.Now()
		} else {
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.state = CircuitClosed
				cb.failures = 0
				cb.successes = 0
			}
		}
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitState { return cb.state }
