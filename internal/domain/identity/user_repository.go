package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

// UserFilter narrows user listings
type UserFilter struct {
	shared.Filter
	Role   Role
	Active *bool
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *User) error
}
