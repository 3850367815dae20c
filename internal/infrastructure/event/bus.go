// Package event dispatches domain events to in-process handlers.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing to a stopped asynchronous bus
var ErrBusStopped = errors.New("event bus is stopped")

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithAsync makes Publish enqueue events for a pool of workers instead of
// dispatching them on the caller's goroutine. The queue holds buffer events.
func WithAsync(workers, buffer int) BusOption {
	return func(b *InMemoryEventBus) {
		if workers < 1 {
			workers = 1
		}
		b.workers = workers
		b.buffer = buffer
	}
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus implements EventBus with in-memory pub/sub
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	wg       sync.WaitGroup

	workers int
	buffer  int
	mu      sync.RWMutex
	queue   chan envelope
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to the registered handlers. Handler errors and
// panics are logged and never reach the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.workers == 0 {
		for _, event := range events {
			b.dispatch(ctx, event)
		}
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.queue == nil {
		return ErrBusStopped
	}
	// handlers outlive the request, so they must not inherit its cancellation
	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		case <-ctx.Done():
			return fmt.Errorf("publish %s: %w", event.EventType(), ctx.Err())
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	// If handler specifies its own event types, use those
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the workers of an asynchronous bus
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	if b.workers > 0 {
		b.mu.Lock()
		b.queue = make(chan envelope, b.buffer)
		queue := b.queue
		b.mu.Unlock()

		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.work(queue)
		}
	}
	b.logger.Info("event bus started",
		zap.Int("workers", b.workers),
		zap.Int("handlers", b.registry.Len()),
	)
	return nil
}

// Stop stops accepting events, drains the queue and waits for the workers.
// It gives up when ctx is done.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	b.mu.Lock()
	if b.queue != nil {
		close(b.queue)
		b.queue = nil
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) work(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			// Log error but continue with other handlers
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
