package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultInvalidationChannel = "perfume:cache:invalidate"
	defaultCloseTimeout        = 5 * time.Second
)

// InvalidationMessage tells peer instances to drop a namespace from their
// local cache
type InvalidationMessage struct {
	Namespace string `json:"namespace"`
	// Origin is the instance that published the message
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}

// Invalidator broadcasts namespace invalidations between instances
type Invalidator interface {
	Publish(ctx context.Context, msg InvalidationMessage) error
	// Subscribe blocks, calling fn for every message, until ctx is done
	Subscribe(ctx context.Context, fn func(InvalidationMessage)) error
}

var errSubscriptionRunning = errors.New("invalidation subscription already running")

// RedisInvalidator implements Invalidator with redis Pub/Sub
type RedisInvalidator struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger

	mu       sync.Mutex
	running  bool
	cancelFn context.CancelFunc
	doneCh   chan struct{}
}

// RedisInvalidatorOption configures a RedisInvalidator
type RedisInvalidatorOption func(*RedisInvalidator)

// WithInvalidationChannel sets the Pub/Sub channel name
func WithInvalidationChannel(channel string) RedisInvalidatorOption {
	return func(i *RedisInvalidator) { i.channel = channel }
}

// WithInvalidatorLogger sets the logger
func WithInvalidatorLogger(logger *zap.Logger) RedisInvalidatorOption {
	return func(i *RedisInvalidator) { i.logger = logger }
}

// NewRedisInvalidator creates an invalidator on a shared client. The caller
// keeps ownership of the client.
func NewRedisInvalidator(client redis.UniversalClient, opts ...RedisInvalidatorOption) *RedisInvalidator {
	i := &RedisInvalidator{
		client:  client,
		channel: defaultInvalidationChannel,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Publish implements Invalidator
func (i *RedisInvalidator) Publish(ctx context.Context, msg InvalidationMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	i.logger.Debug("Published cache invalidation",
		zap.String("namespace", msg.Namespace),
		zap.String("channel", i.channel))
	return nil
}

// Subscribe implements Invalidator. Malformed payloads are logged and skipped.
func (i *RedisInvalidator) Subscribe(ctx context.Context, fn func(InvalidationMessage)) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return errSubscriptionRunning
	}
	subCtx, cancel := context.WithCancel(ctx)
	i.running = true
	i.cancelFn = cancel
	i.doneCh = make(chan struct{})
	done := i.doneCh
	i.mu.Unlock()

	defer func() {
		cancel()
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
		close(done)
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", i.channel, err)
	}
	i.logger.Info("Subscribed to cache invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.logger.Info("Cache invalidation subscription stopped")
			return subCtx.Err()
		case raw, ok := <-ch:
			if !ok {
				i.logger.Warn("Cache invalidation channel closed")
				return nil
			}
			var msg InvalidationMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				i.logger.Error("Failed to decode cache invalidation",
					zap.String("payload", raw.Payload),
					zap.Error(err))
				continue
			}
			fn(msg)
		}
	}
}

// Close stops a running subscription and waits for it to exit
func (i *RedisInvalidator) Close() error {
	i.mu.Lock()
	cancel, done := i.cancelFn, i.doneCh
	i.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-time.After(defaultCloseTimeout):
		i.logger.Warn("Timeout waiting for invalidation subscription to stop")
	}
	return nil
}

var _ Invalidator = (*RedisInvalidator)(nil)
