package identity

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type of users
const AggregateTypeUser = "User"

const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Email:           u.Email,
	}
}

// UserPasswordChangedEvent is published when the password changes
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(u *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, u.ID),
		UserID:          u.ID,
	}
}
