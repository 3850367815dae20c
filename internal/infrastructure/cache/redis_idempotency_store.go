package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perfume/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the request holding a key is still running
const pendingMarker = "\x00pending"

// RedisIdempotencyStore implements IdempotencyStore using Redis, so that
// every instance sees the same keys
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on a shared Redis client
func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: "perfume:idempotency:",
	}
}

// Reserve claims key with SETNX. It returns false if the key is taken.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Complete stores the result of a claimed key
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, result, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Result returns the stored result, or "" while the key is pending or unknown
func (s *RedisIdempotencyStore) Result(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if v == pendingMarker {
		return "", nil
	}
	return v, nil
}

// Release drops a claim
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
