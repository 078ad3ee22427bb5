// Package ratelimit bounds request rates per (scope, identifier) on a shared
// Redis counter, so limits hold across instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result reports one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter int
}

// Limiter is a fixed-window counter on Redis TTL keys. INCR creates the key
// atomically; the first increment in a window sets its expiry.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLimiter constructs a limiter allowing limit requests per window.
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Check counts one attempt for (scope, identifier) and reports whether it is
// within the limit.
func (l *Limiter) Check(ctx context.Context, scope, identifier string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", scope, identifier)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return nil, fmt.Errorf("set rate limit window: %w", err)
		}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	result := &Result{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
	}
	if !result.Allowed {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		result.RetryAfter = int(ttl.Seconds()) + 1
	}
	return result, nil
}
