package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles category operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	productRepo  catalog.ProductRepository
	cache        Cache
	cacheTTL     time.Duration
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService. cache may be nil.
func NewCategoryService(
	categoryRepo catalog.CategoryRepository,
	productRepo catalog.ProductRepository,
	cache Cache,
	cacheTTL time.Duration,
	events shared.EventPublisher,
	logger *zap.Logger,
) *CategoryService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		events:       events,
		logger:       logger,
	}
}

// ListPublic returns the active categories, cached per language
func (s *CategoryService) ListPublic(ctx context.Context, lang string) ([]CategoryResponse, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, s.logger, "categories:"+lang, func() ([]CategoryResponse, error) {
		return s.list(ctx, true, lang)
	})
}

// List returns every category for the admin
func (s *CategoryService) List(ctx context.Context, lang string) ([]CategoryResponse, error) {
	return s.list(ctx, false, lang)
}

func (s *CategoryService) list(ctx context.Context, activeOnly bool, lang string) ([]CategoryResponse, error) {
	cats, err := s.categoryRepo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(cats))
	for i := range cats {
		out = append(out, ToCategoryResponse(&cats[i], lang))
	}
	return out, nil
}

// Get returns a category by id or slug
func (s *CategoryService) Get(ctx context.Context, idOrSlug, lang string) (*CategoryResponse, error) {
	var (
		c   *catalog.Category
		err error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		c, err = s.categoryRepo.FindByID(ctx, id)
	} else {
		c, err = s.categoryRepo.FindBySlug(ctx, strings.ToLower(idOrSlug))
	}
	if err != nil {
		return nil, err
	}
	r := ToCategoryResponse(c, lang)
	return &r, nil
}

// Create creates a category
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest, lang string) (*CategoryResponse, error) {
	name, err := localized("name", req.Name, true)
	if err != nil {
		return nil, err
	}
	description, err := localized("description", req.Description, false)
	if err != nil {
		return nil, err
	}
	c, err := catalog.NewCategory(strings.ToLower(req.Slug), name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, c.Slug, nil); err != nil {
		return nil, err
	}
	c.UpdateDetails(description, req.ImageURL, req.SortOrder)
	if req.Active != nil {
		c.SetActive(*req.Active)
	}
	if err := s.categoryRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, c)
	s.logger.Info("Category created", zap.String("category_id", c.ID.String()), zap.String("slug", c.Slug))

	r := ToCategoryResponse(c, lang)
	return &r, nil
}

// Update replaces the editable fields of a category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req CategoryRequest, lang string) (*CategoryResponse, error) {
	c, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := localized("name", req.Name, true)
	if err != nil {
		return nil, err
	}
	description, err := localized("description", req.Description, false)
	if err != nil {
		return nil, err
	}
	if slug := strings.ToLower(strings.TrimSpace(req.Slug)); slug != "" && slug != c.Slug {
		if err := s.ensureSlugFree(ctx, slug, &c.ID); err != nil {
			return nil, err
		}
		if err := c.ChangeSlug(slug); err != nil {
			return nil, err
		}
	}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	c.UpdateDetails(description, req.ImageURL, req.SortOrder)
	if req.Active != nil {
		c.SetActive(*req.Active)
	}
	if err := s.categoryRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, c)

	r := ToCategoryResponse(c, lang)
	return &r, nil
}

// Delete removes a category that no product references
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("CATEGORY_IN_USE", "Category still has products assigned")
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.logger)
	s.logger.Info("Category deleted", zap.String("category_id", id.String()), zap.String("slug", c.Slug))
	return nil
}

func (s *CategoryService) afterWrite(ctx context.Context, c *catalog.Category) {
	invalidate(ctx, s.cache, s.logger)
	event.PublishPending(ctx, s.events, s.logger, c)
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug string, exclude *uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsBySlug(ctx, slug, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Category with this slug already exists")
	}
	return nil
}
