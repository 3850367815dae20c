package contact

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/segmentio/ksuid"
)

// SampleStatus is the lifecycle state of a sample request
type SampleStatus string

const (
	SampleStatusPending   SampleStatus = "pending"
	SampleStatusFulfilled SampleStatus = "fulfilled"
	SampleStatusCancelled SampleStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s SampleStatus) IsValid() bool {
	switch s {
	case SampleStatusPending, SampleStatusFulfilled, SampleStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s is fulfilled or cancelled
func (s SampleStatus) IsTerminal() bool {
	return s == SampleStatusFulfilled || s == SampleStatusCancelled
}

// Sample request limits
const (
	MinSampleProducts = 1
	MaxSampleProducts = 5
)

// SampleRequest is a customer request for physical samples. It moves from
// pending to fulfilled or cancelled, and never leaves a terminal state.
type SampleRequest struct {
	shared.BaseAggregateRoot
	Reference   string
	UserID      *uuid.UUID
	Name        string
	Email       string
	Phone       string
	Address     valueobject.Address
	ProductIDs  []uuid.UUID
	Notes       string
	Status      SampleStatus
	StatusNote  string
	FulfilledAt *time.Time
	CancelledAt *time.Time
}

// NewSampleReference returns a sortable unique sample reference
func NewSampleReference() string {
	return "SMP-" + ksuid.New().String()
}

// NewSampleRequest creates a pending request. Product IDs are de-duplicated.
func NewSampleRequest(name, email, phone string, address valueobject.Address, productIDs []uuid.UUID, notes string) (*SampleRequest, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	ids := uniqueIDs(productIDs)
	if len(ids) < MinSampleProducts || len(ids) > MaxSampleProducts {
		return nil, shared.NewDomainError("INVALID_PRODUCTS",
			fmt.Sprintf("Select between %d and %d products", MinSampleProducts, MaxSampleProducts))
	}
	r := &SampleRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         NewSampleReference(),
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(phone),
		Address:           address,
		ProductIDs:        ids,
		Notes:             strings.TrimSpace(notes),
		Status:            SampleStatusPending,
	}
	r.AddDomainEvent(NewSampleRequestEvent(EventTypeSampleRequestSubmitted, r))
	return r, nil
}

// Fulfill marks the samples as sent
func (r *SampleRequest) Fulfill(note string) error {
	if err := r.ensurePending(SampleStatusFulfilled); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.Status = SampleStatusFulfilled
	r.StatusNote = strings.TrimSpace(note)
	r.FulfilledAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewSampleRequestEvent(EventTypeSampleRequestFulfilled, r))
	return nil
}

// Cancel closes the request without sending samples
func (r *SampleRequest) Cancel(note string) error {
	if err := r.ensurePending(SampleStatusCancelled); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.Status = SampleStatusCancelled
	r.StatusNote = strings.TrimSpace(note)
	r.CancelledAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewSampleRequestEvent(EventTypeSampleRequestCancelled, r))
	return nil
}

func (r *SampleRequest) ensurePending(target SampleStatus) error {
	if r.Status != SampleStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move sample request from %s to %s", r.Status, target))
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
