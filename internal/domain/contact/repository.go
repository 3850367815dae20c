package contact

import (
	"context"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

// MessageFilter narrows contact message listings
type MessageFilter struct {
	shared.Filter
	UnreadOnly bool
}

// MessageRepository defines the interface for contact message persistence
type MessageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	FindAll(ctx context.Context, filter MessageFilter) ([]Message, int64, error)
	CountUnread(ctx context.Context) (int64, error)
	Save(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SampleFilter narrows sample request listings
type SampleFilter struct {
	shared.Filter
	Status SampleStatus
}

// SampleRequestRepository defines the interface for sample request persistence
type SampleRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SampleRequest, error)
	FindByReference(ctx context.Context, reference string) (*SampleRequest, error)
	FindAll(ctx context.Context, filter SampleFilter) ([]SampleRequest, int64, error)
	CountByStatus(ctx context.Context, status SampleStatus) (int64, error)
	Save(ctx context.Context, r *SampleRequest) error
}
