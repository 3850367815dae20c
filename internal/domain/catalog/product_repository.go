package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductFilter narrows product listings. Zero values mean "any".
type ProductFilter struct {
	shared.Filter
	CategoryID *uuid.UUID
	Gender     Gender
	Brand      string
	Featured   *bool
	Status     ProductStatus
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindByIDsForUpdate loads products with a row lock inside a transaction
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	FindLowStock(ctx context.Context, threshold int, limit int) ([]Product, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
