package catalog

import (
	"strings"

	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// Category groups products on the storefront (e.g. "oud", "floral")
type Category struct {
	shared.BaseAggregateRoot
	Slug        string
	Name        valueobject.LocalizedText
	Description valueobject.LocalizedText
	ImageURL    string
	SortOrder   int
	Active      bool
}

// NewCategory creates an active category
func NewCategory(slug string, name valueobject.LocalizedText) (*Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(name.Get(valueobject.LangEN))
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if name.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}

	c := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              slug,
		Name:              name,
		Description:       valueobject.LocalizedText{},
		Active:            true,
	}
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryCreated, c))
	return c, nil
}

// Rename replaces the translations of the name
func (c *Category) Rename(name valueobject.LocalizedText) error {
	if name.IsEmpty() {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	c.Name = name
	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryUpdated, c))
	return nil
}

// ChangeSlug replaces the slug
func (c *Category) ChangeSlug(slug string) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	c.Slug = slug
	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryUpdated, c))
	return nil
}

// UpdateDetails replaces description, image and sort order
func (c *Category) UpdateDetails(description valueobject.LocalizedText, imageURL string, sortOrder int) {
	c.Description = description
	c.ImageURL = strings.TrimSpace(imageURL)
	c.SortOrder = sortOrder
	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryUpdated, c))
}

// SetActive toggles storefront visibility
func (c *Category) SetActive(active bool) {
	if c.Active == active {
		return
	}
	c.Active = active
	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryChangedEvent(EventTypeCategoryUpdated, c))
}
