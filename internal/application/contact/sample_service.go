package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// SampleService handles sample requests
type SampleService struct {
	repo     contact.SampleRequestRepository
	products catalog.ProductRepository
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewSampleService creates a new SampleService
func NewSampleService(repo contact.SampleRequestRepository, products catalog.ProductRepository, events shared.EventPublisher, logger *zap.Logger) *SampleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleService{repo: repo, products: products, events: events, logger: logger}
}

// Submit records a sample request. Every product must exist and be active.
func (s *SampleService) Submit(ctx context.Context, req SubmitSampleRequest, userID *uuid.UUID) (*SampleResponse, error) {
	a := req.Address
	address, err := valueobject.NewAddress(valueobject.Address{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		Country:    a.Country,
		PostalCode: a.PostalCode,
	})
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_ADDRESS", err.Error(), err)
	}

	r, err := contact.NewSampleRequest(req.Name, req.Email, req.Phone, address, req.ProductIDs, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProductsAvailable(ctx, r.ProductIDs); err != nil {
		return nil, err
	}
	r.UserID = userID

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.events, s.logger, r)
	s.logger.Info("Sample request submitted",
		zap.String("reference", r.Reference),
		zap.Int("products", len(r.ProductIDs)),
	)
	resp := ToSampleResponse(r)
	return &resp, nil
}

func (s *SampleService) ensureProductsAvailable(ctx context.Context, ids []uuid.UUID) error {
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	active := make(map[uuid.UUID]bool, len(products))
	for i := range products {
		active[products[i].ID] = products[i].IsActive()
	}
	var missing []string
	for _, id := range ids {
		if !active[id] {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return shared.NewDomainError("INVALID_PRODUCTS",
			fmt.Sprintf("Products not available for samples: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// Get returns a sample request by id or reference
func (s *SampleService) Get(ctx context.Context, idOrReference string) (*SampleResponse, error) {
	var (
		r   *contact.SampleRequest
		err error
	)
	if id, parseErr := uuid.Parse(idOrReference); parseErr == nil {
		r, err = s.repo.FindByID(ctx, id)
	} else {
		r, err = s.repo.FindByReference(ctx, idOrReference)
	}
	if err != nil {
		return nil, err
	}
	resp := ToSampleResponse(r)
	return &resp, nil
}

// List returns sample requests newest first
func (s *SampleService) List(ctx context.Context, req ListSamplesRequest) (shared.Paginated[SampleResponse], error) {
	filter := contact.SampleFilter{
		Filter: shared.Filter{Page: req.Page, PageSize: req.PageSize, Search: strings.TrimSpace(req.Search)}.Normalize(),
		Status: contact.SampleStatus(req.Status),
	}
	rows, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[SampleResponse]{}, err
	}
	items := make([]SampleResponse, 0, len(rows))
	for i := range rows {
		items = append(items, ToSampleResponse(&rows[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Fulfill marks a pending request as sent
func (s *SampleService) Fulfill(ctx context.Context, id uuid.UUID, req SampleStatusRequest) (*SampleResponse, error) {
	return s.transition(ctx, id, func(r *contact.SampleRequest) error { return r.Fulfill(req.Note) })
}

// Cancel closes a pending request
func (s *SampleService) Cancel(ctx context.Context, id uuid.UUID, req SampleStatusRequest) (*SampleResponse, error) {
	return s.transition(ctx, id, func(r *contact.SampleRequest) error { return r.Cancel(req.Note) })
}

func (s *SampleService) transition(ctx context.Context, id uuid.UUID, fn func(*contact.SampleRequest) error) (*SampleResponse, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.events, s.logger, r)
	s.logger.Info("Sample request updated", zap.String("reference", r.Reference), zap.String("status", string(r.Status)))
	resp := ToSampleResponse(r)
	return &resp, nil
}
