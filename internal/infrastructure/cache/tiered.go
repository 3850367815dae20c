package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const defaultL1TTL = 30 * time.Second

// TieredCache reads through a process local L1 to a shared L2.
// Invalidations clear both tiers and are broadcast so peer instances drop
// their L1 copy. L1 entries live at most L1TTL, which bounds staleness when a
// broadcast is missed.
type TieredCache struct {
	l1          Cache
	l2          Cache
	invalidator Invalidator
	l1TTL       time.Duration
	instanceID  string
	logger      *zap.Logger

	l1Hits   atomic.Int64
	l1Misses atomic.Int64
	l2Hits   atomic.Int64
	l2Misses atomic.Int64
}

// TieredCacheOption configures a TieredCache
type TieredCacheOption func(*TieredCache)

// WithL1TTL caps how long an entry stays in the local tier
func WithL1TTL(ttl time.Duration) TieredCacheOption {
	return func(c *TieredCache) {
		if ttl > 0 {
			c.l1TTL = ttl
		}
	}
}

// WithInvalidator broadcasts invalidations to other instances
func WithInvalidator(inv Invalidator) TieredCacheOption {
	return func(c *TieredCache) { c.invalidator = inv }
}

// WithTieredLogger sets the logger
func WithTieredLogger(logger *zap.Logger) TieredCacheOption {
	return func(c *TieredCache) { c.logger = logger }
}

// NewTieredCache creates a TieredCache over l1 and l2
func NewTieredCache(l1, l2 Cache, opts ...TieredCacheOption) *TieredCache {
	c := &TieredCache{
		l1:         l1,
		l2:         l2,
		l1TTL:      defaultL1TTL,
		instanceID: ksuid.New().String(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Cache. L1 failures are logged and fall through to L2.
func (c *TieredCache) Get(ctx context.Context, namespace, key string, dest any) (bool, error) {
	hit, err := c.l1.Get(ctx, namespace, key, dest)
	if err != nil {
		c.logger.Warn("L1 cache error", zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
	}
	if hit {
		c.l1Hits.Add(1)
		return true, nil
	}
	c.l1Misses.Add(1)

	hit, err = c.l2.Get(ctx, namespace, key, dest)
	if err != nil {
		return false, err
	}
	if !hit {
		c.l2Misses.Add(1)
		return false, nil
	}
	c.l2Hits.Add(1)
	if err := c.l1.Set(ctx, namespace, key, dest, c.l1TTL); err != nil {
		c.logger.Warn("Failed to populate L1 cache", zap.String("key", key), zap.Error(err))
	}
	return true, nil
}

// Set implements Cache
func (c *TieredCache) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	if err := c.l2.Set(ctx, namespace, key, value, ttl); err != nil {
		return err
	}
	if err := c.l1.Set(ctx, namespace, key, value, min(ttl, c.l1TTL)); err != nil {
		c.logger.Warn("Failed to set L1 cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// InvalidateNamespace implements Cache
func (c *TieredCache) InvalidateNamespace(ctx context.Context, namespace string) error {
	if err := c.l2.InvalidateNamespace(ctx, namespace); err != nil {
		return err
	}
	if err := c.l1.InvalidateNamespace(ctx, namespace); err != nil {
		c.logger.Warn("Failed to invalidate L1 cache", zap.String("namespace", namespace), zap.Error(err))
	}
	if c.invalidator != nil {
		msg := InvalidationMessage{Namespace: namespace, Origin: c.instanceID}
		if err := c.invalidator.Publish(ctx, msg); err != nil {
			c.logger.Warn("Failed to broadcast cache invalidation", zap.String("namespace", namespace), zap.Error(err))
		}
	}
	return nil
}

// Listen applies invalidations published by other instances until ctx is
// done. Call it in its own goroutine.
func (c *TieredCache) Listen(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, c.handleInvalidation)
}

func (c *TieredCache) handleInvalidation(msg InvalidationMessage) {
	if msg.Origin == c.instanceID {
		return
	}
	if err := c.l1.InvalidateNamespace(context.Background(), msg.Namespace); err != nil {
		c.logger.Error("Failed to apply remote invalidation", zap.String("namespace", msg.Namespace), zap.Error(err))
		return
	}
	c.logger.Debug("Applied remote cache invalidation",
		zap.String("namespace", msg.Namespace),
		zap.String("origin", msg.Origin))
}

// TieredCacheStats counts lookups per tier
type TieredCacheStats struct {
	L1Hits   int64 `json:"l1_hits"`
	L1Misses int64 `json:"l1_misses"`
	L2Hits   int64 `json:"l2_hits"`
	L2Misses int64 `json:"l2_misses"`
}

// HitRate is the share of lookups answered by either tier
func (s TieredCacheStats) HitRate() float64 {
	total := s.L1Hits + s.L1Misses
	if total == 0 {
		return 0
	}
	return float64(s.L1Hits+s.L2Hits) / float64(total)
}

// Stats returns the lookup counters
func (c *TieredCache) Stats() TieredCacheStats {
	return TieredCacheStats{
		L1Hits:   c.l1Hits.Load(),
		L1Misses: c.l1Misses.Load(),
		L2Hits:   c.l2Hits.Load(),
		L2Misses: c.l2Misses.Load(),
	}
}

var _ Cache = (*TieredCache)(nil)
