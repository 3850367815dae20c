package contact

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

// AggregateTypeSampleRequest is the aggregate type of sample requests
const AggregateTypeSampleRequest = "SampleRequest"

const (
	EventTypeSampleRequestSubmitted = "SampleRequestSubmitted"
	EventTypeSampleRequestFulfilled = "SampleRequestFulfilled"
	EventTypeSampleRequestCancelled = "SampleRequestCancelled"
)

// SampleRequestEvent is published on submission and on each status change
type SampleRequestEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID    `json:"request_id"`
	Reference  string       `json:"reference"`
	Email      string       `json:"email"`
	Status     SampleStatus `json:"status"`
	ProductIDs []uuid.UUID  `json:"product_ids"`
}

// NewSampleRequestEvent creates a SampleRequestEvent of the given type
func NewSampleRequestEvent(eventType string, r *SampleRequest) *SampleRequestEvent {
	return &SampleRequestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeSampleRequest, r.ID),
		RequestID:       r.ID,
		Reference:       r.Reference,
		Email:           r.Email,
		Status:          r.Status,
		ProductIDs:      r.ProductIDs,
	}
}
