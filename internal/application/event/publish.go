// Package event publishes aggregate events after commit and hosts the
// storefront-wide event handlers.
package event

import (
	"context"

	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PublishPending publishes and clears the buffered events of each aggregate.
// It is called after the transaction that produced the events committed, so
// a publish failure is logged instead of failing the request.
func PublishPending(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if len(events) == 0 || publisher == nil {
			continue
		}
		if err := publisher.Publish(ctx, events...); err != nil && logger != nil {
			logger.Error("Failed to publish domain events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Int("count", len(events)),
				zap.Error(err),
			)
		}
	}
}
