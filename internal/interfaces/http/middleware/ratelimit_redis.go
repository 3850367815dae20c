package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "perfume:ratelimit:"

// RedisRateLimiter shares its counters between instances through redis
type RedisRateLimiter struct {
	client redis.UniversalClient
	name   string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter creates a limiter allowing limit requests per window.
// name keeps the counters of different limiters apart.
func NewRedisRateLimiter(client redis.UniversalClient, name string, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, name: name, limit: limit, window: window}
}

// Take implements Limiter. The first request of a window sets the expiry.
func (l *RedisRateLimiter) Take(ctx context.Context, key string) (RateDecision, error) {
	k := rateLimitKeyPrefix + l.name + ":" + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit %s: %w", l.name, err)
	}
	resetIn := ttl.Val()
	if resetIn < 0 {
		resetIn = l.window
	}
	return decide(l.limit, int(incr.Val()), resetIn), nil
}

var (
	_ Limiter = (*RateLimiter)(nil)
	_ Limiter = (*RedisRateLimiter)(nil)
)
