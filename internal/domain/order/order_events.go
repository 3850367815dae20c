package order

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// AggregateTypeOrder is the aggregate type of orders
const AggregateTypeOrder = "Order"

const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderPaid          = "OrderPaid"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderCancelled     = "OrderCancelled"
)

// ItemSnapshot is the event view of an order line
type ItemSnapshot struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func snapshotItems(items []Item) []ItemSnapshot {
	out := make([]ItemSnapshot, len(items))
	for i, it := range items {
		out[i] = ItemSnapshot{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// OrderPlacedEvent is published after checkout commits
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID         `json:"order_id"`
	Number        string            `json:"number"`
	UserID        *uuid.UUID        `json:"user_id,omitempty"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Total         valueobject.Money `json:"total"`
	Items         []ItemSnapshot    `json:"items"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		UserID:          o.UserID,
		PaymentMethod:   o.PaymentMethod,
		Total:           o.Total,
		Items:           snapshotItems(o.Items),
	}
}

// OrderPaidEvent is published when a payment settles
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID         `json:"order_id"`
	Number     string            `json:"number"`
	PaymentRef string            `json:"payment_ref"`
	Amount     valueobject.Money `json:"amount"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		PaymentRef:      o.PaymentRef,
		Amount:          o.Total,
	}
}

// OrderStatusChangedEvent is published on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	Number    string    `json:"number"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, old Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		OldStatus:       old,
		NewStatus:       o.Status,
	}
}

// OrderCancelledEvent is published when an order is cancelled. Stock has
// already been restored in the same transaction.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID      `json:"order_id"`
	Number  string         `json:"number"`
	Reason  string         `json:"reason"`
	Items   []ItemSnapshot `json:"items"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		Reason:          o.CancelReason,
		Items:           snapshotItems(o.Items),
	}
}
