// Package middleware provides the HTTP gates every request passes through:
// the session auth guard, the rate limiters in front of the auth endpoints,
// and request logging/recovery.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nippo-hq/nippo/pkg/httputil"
)

// RateLimitConfig defines a rolling-window rate limit
type RateLimitConfig struct {
	// MaxAttempts is the number of attempts allowed inside the window
	MaxAttempts int
	// Window is the trailing duration attempts are counted over
	Window time.Duration
}

// LoginRateLimitConfig returns the limit for login attempts
func LoginRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

// RegisterRateLimitConfig returns the limit for registration attempts
func RegisterRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MaxAttempts: 3,
		Window:      60 * time.Minute,
	}
}

// Limiter records an attempt for a client key and reports whether it is
// allowed. Implementations must count attempts over a rolling window:
// attempts age out individually rather than at a fixed reset instant.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter is an in-memory sliding-window limiter. Per key it keeps the
// timestamps of attempts inside the trailing window.
type RateLimiter struct {
	config  *RateLimitConfig
	mu      sync.Mutex
	entries map[string][]time.Time

	// now is swappable in tests
	now func() time.Time
}

// NewRateLimiter creates a new in-memory sliding-window limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:  config,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Once MaxAttempts attempts sit inside the trailing window, every
// further attempt is rejected until the oldest one ages out.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.config.Window)

	kept := rl.entries[key][:0]
	for _, at := range rl.entries[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= rl.config.MaxAttempts {
		rl.entries[key] = kept
		return false, nil
	}

	rl.entries[key] = append(kept, now)
	return true, nil
}

// Remaining returns how many attempts key has left in the current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.Window)
	inWindow := 0
	for _, at := range rl.entries[key] {
		if at.After(cutoff) {
			inWindow++
		}
	}

	remaining := rl.config.MaxAttempts - inWindow
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Cleanup drops keys whose every attempt has aged out of the window
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.Window)
	for key, attempts := range rl.entries {
		stale := true
		for _, at := range attempts {
			if at.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(rl.entries, key)
		}
	}
}

// RateLimit gates a handler behind the limiter. Throttled requests are
// rejected with 429 before any credential or session work runs.
func RateLimit(limiter Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := limiter.Allow(r.Context(), httputil.ClientKey(r))
		if err != nil {
			// Fail closed when the limiter backend is unreachable
			httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "rate limiter unavailable")
			return
		}
		if !allowed {
			httputil.WriteTooManyRequests(w, "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
