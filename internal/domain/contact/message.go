package contact

import (
	"strings"
	"time"

	"github.com/perfume/backend/internal/domain/shared"
)

// Message is a message left through the contact form
type Message struct {
	shared.BaseEntity
	Name    string
	Email   string
	Phone   string
	Subject string
	Body    string
	Read    bool
	ReadAt  *time.Time
}

// MaxMessageLength bounds the body of a contact message
const MaxMessageLength = 5000

// NewMessage validates and creates an unread message
func NewMessage(name, email, phone, subject, body string) (*Message, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	body = strings.TrimSpace(body)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if body == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	if len([]rune(body)) > MaxMessageLength {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is too long")
	}
	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(phone),
		Subject:    strings.TrimSpace(subject),
		Body:       body,
	}, nil
}

// MarkRead flags the message as read
func (m *Message) MarkRead() {
	if m.Read {
		return
	}
	now := time.Now().UTC()
	m.Read = true
	m.ReadAt = &now
	m.Touch()
}
