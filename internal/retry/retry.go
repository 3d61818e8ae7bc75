// Package retry classifies faults and schedules exponential backoff with
// jitter for exchange operations, grounded on
// internal/concurrency/backoff.go.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config is a backoff preset: attempts are capped at MaxRetries; delay for
// attempt k is min(BaseDelay*2^k, MaxDelay), scaled by a random factor in
// (1 +/- 0.25) when Jitter is set. The jitter factor is fixed, not configurable.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// Default presets.
var (
	DEFAULT      = Config{MaxRetries: 3, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second, Jitter: true}
	AGGRESSIVE   = Config{MaxRetries: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 60 * time.Second, Jitter: true}
	CONSERVATIVE = Config{MaxRetries: 2, BaseDelay: 2 * time.Second, MaxDelay: 20 * time.Second, Jitter: true}
	NONE         = Config{MaxRetries: 0, BaseDelay: 0, MaxDelay: 0, Jitter: false}
)

// Policy executes an operation, retrying on classified-retryable failures.
type Policy struct {
	cfg Config
}

// New constructs a Policy from cfg.
func New(cfg Config) *Policy { return &Policy{cfg: cfg} }

// delayFor returns the delay before attempt k (0-indexed), per the
// min(base*2^k, max)*(1+/-jitter) formula.
func (p *Policy) delayFor(k int) time.Duration {
	delay := p.cfg.BaseDelay * time.Duration(1<<uint(k))
	if delay > p.cfg.MaxDelay {
		delay = p.cfg.MaxDelay
	}
	if p.cfg.Jitter {
		factor := 0.75 + rand.Float64()*0.5 // +/-25%
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

// Execute invokes op, retrying per the policy's classification of errors
// via Retryable. name identifies the operation for error messages.
func (p *Policy) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.cfg.MaxRetries {
			break
		}
		delay := p.delayFor(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("retry: %s failed after %d attempts: %w", name, p.cfg.MaxRetries+1, lastErr)
}
