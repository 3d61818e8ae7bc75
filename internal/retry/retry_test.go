package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradercore/internal/retry"
)

func TestExecute_RetriesRetryableErrors(t *testing.T) {
	cfg := retry.Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Jitter: false}
	policy := retry.New(cfg)

	attempts := 0
	err := policy.Execute(context.Background(), "test-op", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &retry.RateLimitError{}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecute_StopsOnNonRetryableError(t *testing.T) {
	policy := retry.New(retry.DEFAULT)

	attempts := 0
	err := policy.Execute(context.Background(), "test-op", func(ctx context.Context) error {
		attempts++
		return &retry.AuthenticationError{Reason: "bad signature"}
	})

	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
	var authErr *retry.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Errorf("expected AuthenticationError to propagate, got %v", err)
	}
}

func TestExecute_GivesUpAfterMaxRetries(t *testing.T) {
	cfg := retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Jitter: false}
	policy := retry.New(cfg)

	attempts := 0
	err := policy.Execute(context.Background(), "test-op", func(ctx context.Context) error {
		attempts++
		return &retry.RateLimitError{}
	})

	if attempts != 3 { // initial + 2 retries
		t.Errorf("expected 3 total attempts, got %d", attempts)
	}
	if err == nil {
		t.Error("expected an error after exhausting retries")
	}
}

func TestRetryable_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"connection retryable", &retry.ConnectionError{Op: "dial", Err: errors.New("refused"), Retryable: true}, true},
		{"connection non-retryable", &retry.ConnectionError{Op: "tls", Err: errors.New("cert"), Retryable: false}, false},
		{"auth error", &retry.AuthenticationError{Reason: "bad key"}, false},
		{"rate limit", &retry.RateLimitError{RetryAfter: 500}, true},
		{"insufficient funds", &retry.InsufficientFundsError{Reason: "low balance"}, false},
		{"order invalid params", &retry.OrderError{Code: retry.OrderInvalidParameters}, false},
		{"order not found", &retry.OrderError{Code: retry.OrderNotFound}, false},
		{"order duplicate", &retry.OrderError{Code: retry.OrderDuplicate}, false},
		{"order generic exchange error", &retry.OrderError{Code: "EXCHANGE_BUSY"}, true},
		{"unsupported operation", &retry.UnsupportedOperation{Operation: "margin"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retry.Retryable(tc.err); got != tc.want {
				t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := retry.NewCircuitBreaker(retry.CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  20 * time.Millisecond,
		SuccessThreshold: 1,
	})

	fail := errors.New("boom")
	_ = cb.Call(func() error { return fail })
	_ = cb.Call(func() error { return fail })

	if cb.State() != retry.CircuitOpen {
		t.Fatalf("expected circuit to open after threshold failures, state=%v", cb.State())
	}

	if err := cb.Call(func() error { return nil }); err != retry.ErrCircuitOpen {
		t.Errorf("expected calls to be rejected while open, got %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("expected half-open probe to succeed, got %v", err)
	}
	if cb.State() != retry.CircuitClosed {
		t.Errorf("expected circuit to close after successful probe, state=%v", cb.State())
	}
}
