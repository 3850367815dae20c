package content

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for content block persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Block, error)
	FindByKey(ctx context.Context, key string) (*Block, error)
	// FindByPage returns blocks of a page ordered by sort order
	FindByPage(ctx context.Context, page string, publishedOnly bool) ([]Block, error)
	FindAll(ctx context.Context) ([]Block, error)
	Save(ctx context.Context, block *Block) error
	Delete(ctx context.Context, id uuid.UUID) error
}
