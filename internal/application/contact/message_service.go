// Package contact handles the contact form and sample requests.
package contact

import (
	"context"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MessageService handles contact form messages
type MessageService struct {
	repo   contact.MessageRepository
	logger *zap.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(repo contact.MessageRepository, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, logger: logger}
}

// Submit stores a message from the contact form
func (s *MessageService) Submit(ctx context.Context, req SubmitMessageRequest) (*MessageResponse, error) {
	m, err := contact.NewMessage(req.Name, req.Email, req.Phone, req.Subject, req.Message)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Contact message received", zap.String("message_id", m.ID.String()), zap.String("subject", m.Subject))
	r := ToMessageResponse(m)
	return &r, nil
}

// List returns messages newest first
func (s *MessageService) List(ctx context.Context, req ListMessagesRequest) (shared.Paginated[MessageResponse], error) {
	filter := contact.MessageFilter{
		Filter:     shared.Filter{Page: req.Page, PageSize: req.PageSize}.Normalize(),
		UnreadOnly: req.UnreadOnly,
	}
	msgs, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[MessageResponse]{}, err
	}
	items := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, ToMessageResponse(&msgs[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// MarkRead flags a message as read
func (s *MessageService) MarkRead(ctx context.Context, id uuid.UUID) (*MessageResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.MarkRead()
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	r := ToMessageResponse(m)
	return &r, nil
}

// Delete removes a message
func (s *MessageService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
