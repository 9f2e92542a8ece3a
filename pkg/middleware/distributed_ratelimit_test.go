package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDistributedRateLimiter_AllowsUpToMax(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewDistributedRateLimiter(client, LoginRateLimitConfig(), "ratelimit:login")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if allowed {
		t.Error("6th attempt inside the window should be rejected")
	}
}

func TestDistributedRateLimiter_SlidingWindowDecay(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewDistributedRateLimiter(client,
		&RateLimitConfig{MaxAttempts: 2, Window: 15 * time.Minute}, "ratelimit:login")
	ctx := context.Background()

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 2; i++ {
		if allowed, err := limiter.Allow(ctx, "10.0.0.1"); err != nil || !allowed {
			t.Fatalf("attempt %d: allowed=%v err=%v", i+1, allowed, err)
		}
		current = current.Add(time.Minute)
	}

	if allowed, _ := limiter.Allow(ctx, "10.0.0.1"); allowed {
		t.Fatal("should be throttled with the window full")
	}

	// Roll past the first attempt; its slot frees up
	current = current.Add(15 * time.Minute)
	if allowed, err := limiter.Allow(ctx, "10.0.0.1"); err != nil || !allowed {
		t.Fatalf("oldest attempt aged out: allowed=%v err=%v", allowed, err)
	}
}

func TestDistributedRateLimiter_KeysAreIndependent(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewDistributedRateLimiter(client,
		&RateLimitConfig{MaxAttempts: 1, Window: time.Minute}, "ratelimit:register")
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "10.0.0.1"); !allowed {
		t.Fatal("first key should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "10.0.0.1"); allowed {
		t.Fatal("first key should now be throttled")
	}
	if allowed, _ := limiter.Allow(ctx, "10.0.0.2"); !allowed {
		t.Fatal("second key has its own bucket")
	}
}

func TestDistributedRateLimiter_FailsClosed(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // limiter now points at a dead server

	limiter := NewDistributedRateLimiter(client, LoginRateLimitConfig(), "ratelimit:login")
	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	if err == nil {
		t.Fatal("expected an error from a dead redis")
	}
	if allowed {
		t.Error("a limiter error must not allow the attempt")
	}
}

func TestDistributedRateLimiter_Reset(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewDistributedRateLimiter(client,
		&RateLimitConfig{MaxAttempts: 1, Window: time.Minute}, "ratelimit:login")
	ctx := context.Background()

	limiter.Allow(ctx, "10.0.0.1")
	if allowed, _ := limiter.Allow(ctx, "10.0.0.1"); allowed {
		t.Fatal("should be throttled")
	}

	if err := limiter.Reset(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if allowed, _ := limiter.Allow(ctx, "10.0.0.1"); !allowed {
		t.Error("reset should clear the bucket")
	}
}
