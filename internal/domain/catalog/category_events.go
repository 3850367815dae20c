package catalog

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

// AggregateTypeCategory is the aggregate type of categories
const AggregateTypeCategory = "Category"

const (
	EventTypeCategoryCreated = "CategoryCreated"
	EventTypeCategoryUpdated = "CategoryUpdated"
	EventTypeCategoryDeleted = "CategoryDeleted"
)

// CategoryChangedEvent is published on any category write
type CategoryChangedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID `json:"category_id"`
	Slug       string    `json:"slug"`
}

// NewCategoryChangedEvent creates a CategoryChangedEvent of the given type
func NewCategoryChangedEvent(eventType string, c *Category) *CategoryChangedEvent {
	return &CategoryChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCategory, c.ID),
		CategoryID:      c.ID,
		Slug:            c.Slug,
	}
}
