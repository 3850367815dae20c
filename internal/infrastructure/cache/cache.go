// Package cache holds the redis backed read cache, idempotency store and
// health check, plus in-process fallbacks used when redis is disabled.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache stores JSON encoded values under namespaced keys. Invalidating a
// namespace drops every key written to it.
type Cache interface {
	// Get decodes the cached value into dest. It reports false on a miss.
	Get(ctx context.Context, namespace, key string, dest any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

// NoopCache never stores anything
type NoopCache struct{}

// Get always misses
func (NoopCache) Get(context.Context, string, string, any) (bool, error) { return false, nil }

// Set discards the value
func (NoopCache) Set(context.Context, string, string, any, time.Duration) error { return nil }

// InvalidateNamespace does nothing
func (NoopCache) InvalidateNamespace(context.Context, string) error { return nil }

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// DefaultCleanupInterval is how often InMemoryCache sweeps expired items
const DefaultCleanupInterval = time.Minute

// InMemoryCache is a process local Cache. Expired items are dropped on read
// and by a background sweep; call Close to stop it.
type InMemoryCache struct {
	mu        sync.Mutex
	items     map[string]map[string]memoryItem
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// MemoryCacheOption configures an InMemoryCache
type MemoryCacheOption func(*memoryCacheOptions)

type memoryCacheOptions struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets the sweep interval. Zero or less disables the sweep.
func WithCleanupInterval(d time.Duration) MemoryCacheOption {
	return func(o *memoryCacheOptions) { o.cleanupInterval = d }
}

// NewInMemoryCache creates an empty InMemoryCache and starts its sweep
func NewInMemoryCache(opts ...MemoryCacheOption) *InMemoryCache {
	o := memoryCacheOptions{cleanupInterval: DefaultCleanupInterval}
	for _, opt := range opts {
		opt(&o)
	}
	c := &InMemoryCache{
		items:    make(map[string]map[string]memoryItem),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if o.cleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop(o.cleanupInterval)
	}
	return c
}

// Get implements Cache
func (c *InMemoryCache) Get(_ context.Context, namespace, key string, dest any) (bool, error) {
	c.mu.Lock()
	item, ok := c.items[namespace][key]
	if ok && c.now().After(item.expiresAt) {
		delete(c.items[namespace], key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Cache
func (c *InMemoryCache) Set(_ context.Context, namespace, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items[namespace] == nil {
		c.items[namespace] = make(map[string]memoryItem)
	}
	c.items[namespace][key] = memoryItem{data: data, expiresAt: c.now().Add(ttl)}
	return nil
}

// InvalidateNamespace implements Cache
func (c *InMemoryCache) InvalidateNamespace(_ context.Context, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, namespace)
	return nil
}

// Len returns the number of stored items, expired or not
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, items := range c.items {
		n += len(items)
	}
	return n
}

// Close stops the sweep. Safe to call multiple times.
func (c *InMemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *InMemoryCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for namespace, items := range c.items {
		for key, item := range items {
			if now.After(item.expiresAt) {
				delete(items, key)
			}
		}
		if len(items) == 0 {
			delete(c.items, namespace)
		}
	}
}

var (
	_ Cache = NoopCache{}
	_ Cache = (*InMemoryCache)(nil)
)
