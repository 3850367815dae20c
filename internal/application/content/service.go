// Package content serves the multilingual storefront content blocks.
package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/content"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Service manages content blocks
type Service struct {
	repo   content.Repository
	logger *zap.Logger
}

// NewService creates a new content Service
func NewService(repo content.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// GetByKey returns a published block
func (s *Service) GetByKey(ctx context.Context, key, lang string) (*BlockResponse, error) {
	b, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !b.Published {
		return nil, shared.ErrNotFound
	}
	r := ToBlockResponse(b, lang)
	return &r, nil
}

// ListByPage returns the published blocks of a page
func (s *Service) ListByPage(ctx context.Context, page, lang string) ([]BlockResponse, error) {
	blocks, err := s.repo.FindByPage(ctx, page, true)
	if err != nil {
		return nil, err
	}
	return toResponses(blocks, lang), nil
}

// ListAll returns every block, published or not
func (s *Service) ListAll(ctx context.Context, lang string) ([]BlockResponse, error) {
	blocks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(blocks, lang), nil
}

// Upsert creates the block stored under key or replaces its content
func (s *Service) Upsert(ctx context.Context, key string, req UpsertBlockRequest, lang string) (*UpsertResult, error) {
	in, err := blockInput(req)
	if err != nil {
		return nil, err
	}

	b, err := s.repo.FindByKey(ctx, key)
	created := false
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if b, err = content.NewBlock(key, in); err != nil {
			return nil, err
		}
		created = true
	case err != nil:
		return nil, err
	default:
		if err := b.Update(in); err != nil {
			return nil, err
		}
	}
	if req.Published != nil {
		if *req.Published {
			b.Publish()
		} else {
			b.Unpublish()
		}
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("Content block saved", zap.String("key", b.Key), zap.Bool("created", created))
	return &UpsertResult{Block: ToBlockResponse(b, lang), Created: created}, nil
}

// Publish makes a block visible
func (s *Service) Publish(ctx context.Context, id uuid.UUID, lang string) (*BlockResponse, error) {
	return s.mutate(ctx, id, lang, (*content.Block).Publish)
}

// Unpublish hides a block
func (s *Service) Unpublish(ctx context.Context, id uuid.UUID, lang string) (*BlockResponse, error) {
	return s.mutate(ctx, id, lang, (*content.Block).Unpublish)
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, lang string, fn func(*content.Block)) (*BlockResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(b)
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	r := ToBlockResponse(b, lang)
	return &r, nil
}

// Delete removes a block
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Content block deleted", zap.String("block_id", id.String()))
	return nil
}

// Languages lists the supported languages with their own display name and
// text direction
func (s *Service) Languages() []Language {
	codes := valueobject.SupportedLanguages()
	out := make([]Language, 0, len(codes))
	for _, code := range codes {
		dir := "ltr"
		if valueobject.IsRTL(code) {
			dir = "rtl"
		}
		out = append(out, Language{
			Code:      code,
			Name:      display.Self.Name(language.Make(code)),
			Direction: dir,
			Default:   code == valueobject.DefaultLanguage,
		})
	}
	return out
}

func blockInput(req UpsertBlockRequest) (content.BlockInput, error) {
	title, err := valueobject.NewLocalizedText(req.Title)
	if err != nil {
		return content.BlockInput{}, shared.WrapDomainError("INVALID_INPUT", "title: "+err.Error(), err)
	}
	body, err := valueobject.NewLocalizedText(req.Body)
	if err != nil {
		return content.BlockInput{}, shared.WrapDomainError("INVALID_INPUT", "body: "+err.Error(), err)
	}
	return content.BlockInput{
		Page:      req.Page,
		Title:     title,
		Body:      body,
		ImageURL:  req.ImageURL,
		Data:      req.Data,
		SortOrder: req.SortOrder,
	}, nil
}

func toResponses(blocks []content.Block, lang string) []BlockResponse {
	out := make([]BlockResponse, 0, len(blocks))
	for i := range blocks {
		out = append(out, ToBlockResponse(&blocks[i], lang))
	}
	return out
}
