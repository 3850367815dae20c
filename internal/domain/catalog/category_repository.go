package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	// FindAll returns categories ordered by sort order then slug
	FindAll(ctx context.Context, activeOnly bool) ([]Category, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}
