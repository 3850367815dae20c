package event

import (
	"context"

	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShopMetrics records storefront business counters
type ShopMetrics interface {
	RecordOrderPlaced(ctx context.Context, paymentMethod, currency string, total decimal.Decimal)
	RecordSampleRequest(ctx context.Context)
}

// ShopHandler turns checkout and sample events into metrics and log lines
type ShopHandler struct {
	metrics ShopMetrics
	logger  *zap.Logger
}

// NewShopHandler creates a ShopHandler. metrics may be nil.
func NewShopHandler(metrics ShopMetrics, logger *zap.Logger) *ShopHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopHandler{metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ShopHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderPaid,
		order.EventTypeOrderCancelled,
		contact.EventTypeSampleRequestSubmitted,
	}
}

// Handle processes one event
func (h *ShopHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		h.logger.Info("Order placed",
			zap.String("order_number", e.Number),
			zap.String("payment_method", string(e.PaymentMethod)),
			zap.String("total", e.Total.String()),
			zap.Int("lines", len(e.Items)),
		)
		if h.metrics != nil {
			h.metrics.RecordOrderPlaced(ctx, string(e.PaymentMethod), string(e.Total.Currency()), e.Total.Amount())
		}
	case *order.OrderPaidEvent:
		h.logger.Info("Order paid",
			zap.String("order_number", e.Number),
			zap.String("payment_ref", e.PaymentRef),
			zap.String("amount", e.Amount.String()),
		)
	case *order.OrderCancelledEvent:
		h.logger.Info("Order cancelled",
			zap.String("order_number", e.Number),
			zap.String("reason", e.Reason),
			zap.Int("lines_restocked", len(e.Items)),
		)
	case *contact.SampleRequestEvent:
		if e.EventType() != contact.EventTypeSampleRequestSubmitted {
			return nil
		}
		h.logger.Info("Sample request submitted",
			zap.String("reference", e.Reference),
			zap.Int("products", len(e.ProductIDs)),
		)
		if h.metrics != nil {
			h.metrics.RecordSampleRequest(ctx)
		}
	default:
		h.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}
