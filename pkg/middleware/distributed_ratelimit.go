package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// DistributedRateLimiter implements the sliding window in Redis so the
// limit holds across multiple instances. Attempts live in a sorted set
// scored by timestamp; members older than the window are trimmed before
// each count.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string

	// now is swappable in tests
	now func() time.Time
}

// NewDistributedRateLimiter creates a new Redis-backed sliding-window
// limiter. prefix namespaces the keys of one bucket (e.g. "ratelimit:login").
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. On Redis errors the limiter fails closed.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	now := rl.now()
	cutoff := now.Add(-rl.config.Window)

	pipe := rl.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	count := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	if count.Val() >= int64(rl.config.MaxAttempts) {
		return false, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = rl.redis.TxPipeline()
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	return true, nil
}

// Reset clears the rate limit for a key (for admin or test use)
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}
