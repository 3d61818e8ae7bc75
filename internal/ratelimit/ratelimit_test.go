package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"tradercore/internal/ratelimit"
)

func TestTryAcquire_RespectsBurstCapacity(t *testing.T) {
	lim := ratelimit.New(ratelimit.Config{RequestsPerSecond: 1, BurstCapacity: 2})

	if !lim.TryAcquire("", 1) {
		t.Fatal("expected first acquire to succeed")
	}
	if !lim.TryAcquire("", 1) {
		t.Fatal("expected second acquire to succeed (burst capacity 2)")
	}
	if lim.TryAcquire("", 1) {
		t.Fatal("expected third acquire to fail, bucket exhausted")
	}

	stats := lim.Stats()
	if stats.Total != 3 {
		t.Errorf("expected 3 total calls recorded, got %d", stats.Total)
	}
	if stats.Rejected != 1 {
		t.Errorf("expected 1 rejected call recorded, got %d", stats.Rejected)
	}
}

func TestAcquire_BlocksUntilRefill(t *testing.T) {
	lim := ratelimit.New(ratelimit.Config{RequestsPerSecond: 10, BurstCapacity: 1})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := lim.Acquire(ctx, "", 1); err != nil {
		t.Fatalf("first acquire should not block: %v", err)
	}

	start := time.Now()
	if err := lim.Acquire(ctx, "", 1); err != nil {
		t.Fatalf("second acquire should eventually succeed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected second acquire to wait for refill, only waited %v", elapsed)
	}
}

func TestAcquire_PerEndpointBucketIsIndependent(t *testing.T) {
	lim := ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, BurstCapacity: 1, PerEndpoint: true})

	if !lim.TryAcquire("orders", 1) {
		t.Fatal("expected first orders acquire to succeed")
	}
	// Global bucket (high rate) can still serve, but the orders endpoint
	// bucket is exhausted at burst 1.
	if lim.TryAcquire("orders", 1) {
		t.Fatal("expected endpoint bucket to reject second orders call")
	}
	if !lim.TryAcquire("ticker", 1) {
		t.Fatal("expected a different endpoint's bucket to be independent")
	}
}

func TestAcquire_ContextCancellation(t *testing.T) {
	lim := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.1, BurstCapacity: 1})
	_ = lim.TryAcquire("", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := lim.Acquire(ctx, "", 1); err == nil {
		t.Error("expected context deadline to abort the wait")
	}
}
