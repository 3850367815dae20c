package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// NewRedisClient connects to redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// RedisHealth reports the state of a redis client in the same shape as the
// database health check
type RedisHealth struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisHealth creates a health checker for client
func NewRedisHealth(client redis.UniversalClient, logger *zap.Logger) *RedisHealth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisHealth{client: client, logger: logger}
}

// Health pings redis with a short timeout
func (h *RedisHealth) Health(ctx context.Context) persistence.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	start := time.Now()
	err := h.client.Ping(ctx).Err()
	status := persistence.HealthStatus{Status: persistence.StatusUp, Latency: time.Since(start)}
	if err != nil {
		status.Status = persistence.StatusDown
		status.Error = err.Error()
		h.logger.Warn("Redis health check failed", zap.Error(err))
	}
	stats := h.client.PoolStats()
	status.OpenConnections = int(stats.TotalConns)
	status.Idle = int(stats.IdleConns)
	status.InUse = int(stats.TotalConns - stats.IdleConns)
	return status
}
