package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RateDecision is the outcome of taking one request from a bucket
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time until the bucket refills
	ResetIn time.Duration
}

// Limiter counts requests per key in fixed windows
type Limiter interface {
	Take(ctx context.Context, key string) (RateDecision, error)
}

// RateLimiter is an in-process Limiter. Each instance counts on its own, so
// it only suits single instance deployments and tests.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window. Stop
// must be called to end its sweep goroutine.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweep(2 * window)
	return rl
}

// Stop ends the sweep goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if !now.Before(b.resetAt) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Take implements Limiter
func (rl *RateLimiter) Take(_ context.Context, key string) (RateDecision, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(rl.window)}
		rl.buckets[key] = b
	}
	b.count++
	return decide(rl.limit, b.count, b.resetAt.Sub(now)), nil
}

func decide(limit, count int, resetIn time.Duration) RateDecision {
	return RateDecision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetIn:   resetIn,
	}
}

// RateLimit limits requests per client IP
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// AuthRateLimit applies the stricter limit used for sign-in and public
// submission endpoints. Keys are prefixed so these buckets stay apart from
// the global ones when both share a Limiter.
func AuthRateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() })
}

// RateLimitByKey limits requests per key. A failing limiter lets the request
// through.
func RateLimitByKey(limiter Limiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := limiter.Take(c.Request.Context(), keyFunc(c))
		if err != nil {
			logger.GetGinLogger(c).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
