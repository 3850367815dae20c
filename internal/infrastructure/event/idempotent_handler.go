package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDedupTTL is how long a handled event id is remembered
const DefaultDedupTTL = 24 * time.Hour

// IdempotencyStats is a snapshot of idempotent handler counters
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler wraps an EventHandler so each event id is handled once,
// even when several instances share the store.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its id was already claimed
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := "event:" + event.EventType() + ":" + event.EventID().String()

	claimed, err := h.store.Reserve(ctx, key, h.ttl)
	if err != nil {
		// a duplicate is better than a dropped event
		h.logger.Warn("failed to check idempotency, processing anyway",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	} else if !claimed {
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event detected, skipping",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		if claimed {
			// let a redelivery try again
			if relErr := h.store.Release(ctx, key); relErr != nil {
				h.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return err
	}

	h.processed.Add(1)
	if claimed {
		if err := h.store.Complete(ctx, key, "done", h.ttl); err != nil {
			h.logger.Warn("failed to complete idempotency key", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

// Ensure IdempotentHandler implements EventHandler
var _ shared.EventHandler = (*IdempotentHandler)(nil)
