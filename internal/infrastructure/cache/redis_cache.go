package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on redis. Each namespace has a generation
// counter that is part of every key; invalidation bumps the counter so old
// keys are never read again and expire on their own TTL.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache creates a RedisCache
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, keyPrefix: "perfume:cache:"}
}

func (c *RedisCache) generationKey(namespace string) string {
	return c.keyPrefix + namespace + ":gen"
}

func (c *RedisCache) key(ctx context.Context, namespace, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey(namespace)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return fmt.Sprintf("%s%s:%d:%s", c.keyPrefix, namespace, gen, key), nil
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, namespace, key string, dest any) (bool, error) {
	k, err := c.key(ctx, namespace, key)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return true, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	k, err := c.key(ctx, namespace, key)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, k, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// InvalidateNamespace implements Cache
func (c *RedisCache) InvalidateNamespace(ctx context.Context, namespace string) error {
	if err := c.client.Incr(ctx, c.generationKey(namespace)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache namespace %s: %w", namespace, err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
