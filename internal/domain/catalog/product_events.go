package catalog

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// AggregateTypeProduct is the aggregate type of products
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeProductPriceChanged  = "ProductPriceChanged"
	EventTypeProductStockAdjusted = "ProductStockAdjusted"
	EventTypeProductDeleted       = "ProductDeleted"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Slug:            p.Slug,
	}
}

// ProductUpdatedEvent is published when descriptive data changes
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Slug:            p.Slug,
	}
}

// ProductStatusChangedEvent is published on activate/deactivate
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID     `json:"product_id"`
	OldStatus ProductStatus `json:"old_status"`
	NewStatus ProductStatus `json:"new_status"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(p *Product, old ProductStatus) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		OldStatus:       old,
		NewStatus:       p.Status,
	}
}

// ProductPriceChangedEvent is published when the selling price changes
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID         `json:"product_id"`
	OldPrice  valueobject.Money `json:"old_price"`
	NewPrice  valueobject.Money `json:"new_price"`
}

// NewProductPriceChangedEvent creates a new ProductPriceChangedEvent
func NewProductPriceChangedEvent(p *Product, old valueobject.Money) *ProductPriceChangedEvent {
	return &ProductPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPriceChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		OldPrice:        old,
		NewPrice:        p.Price,
	}
}

// ProductStockAdjustedEvent is published on every stock movement
type ProductStockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Reason    string    `json:"reason"`
}

// NewProductStockAdjustedEvent creates a new ProductStockAdjustedEvent
func NewProductStockAdjustedEvent(p *Product, before int, reason string) *ProductStockAdjustedEvent {
	return &ProductStockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockAdjusted, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Before:          before,
		After:           p.Stock,
		Reason:          reason,
	}
}

// ProductDeletedEvent is published after a product is removed. ImageKeys lets
// subscribers clean up object storage.
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
	ImageKeys []string  `json:"image_keys"`
}

// NewProductDeletedEvent creates a new ProductDeletedEvent
func NewProductDeletedEvent(p *Product) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductDeleted, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Slug:            p.Slug,
		ImageKeys:       p.ImageKeys(),
	}
}
