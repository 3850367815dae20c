package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	cache        Cache
	cacheTTL     time.Duration
	currency     valueobject.Currency
	events       shared.EventPublisher
	logger       *zap.Logger
}

// ProductServiceConfig holds the store settings products depend on
type ProductServiceConfig struct {
	Currency valueobject.Currency
	CacheTTL time.Duration
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	cache Cache,
	events shared.EventPublisher,
	cfg ProductServiceConfig,
	logger *zap.Logger,
) *ProductService {
	if cfg.Currency == "" {
		cfg.Currency = valueobject.DefaultCurrency
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		cacheTTL:     cfg.CacheTTL,
		currency:     cfg.Currency,
		events:       events,
		logger:       logger,
	}
}

// ListPublic returns active products only. Results are cached per language.
func (s *ProductService) ListPublic(ctx context.Context, req ListProductsRequest, lang string) (shared.Paginated[ProductResponse], error) {
	req.Status = string(catalog.ProductStatusActive)
	return readThrough(ctx, s.cache, s.cacheTTL, s.logger, listCacheKey(lang, req), func() (shared.Paginated[ProductResponse], error) {
		return s.list(ctx, req, lang)
	})
}

// List returns products in any status for the admin
func (s *ProductService) List(ctx context.Context, req ListProductsRequest, lang string) (shared.Paginated[ProductResponse], error) {
	return s.list(ctx, req, lang)
}

func (s *ProductService) list(ctx context.Context, req ListProductsRequest, lang string) (shared.Paginated[ProductResponse], error) {
	filter, err := s.buildFilter(ctx, req)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	products, total, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i], lang))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *ProductService) buildFilter(ctx context.Context, req ListProductsRequest) (catalog.ProductFilter, error) {
	filter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			Search:   strings.TrimSpace(req.Search),
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		}.Normalize(),
		CategoryID: req.CategoryID,
		Gender:     catalog.Gender(req.Gender),
		Brand:      strings.TrimSpace(req.Brand),
		Featured:   req.Featured,
		Status:     catalog.ProductStatus(req.Status),
		InStock:    req.InStock,
	}
	if req.Category != "" && req.CategoryID == nil {
		cat, err := s.categoryRepo.FindBySlug(ctx, req.Category)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return filter, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return filter, err
		}
		filter.CategoryID = &cat.ID
	}
	var err error
	if filter.MinPrice, err = parsePrice(req.MinPrice, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parsePrice(req.MaxPrice, "max_price"); err != nil {
		return filter, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return filter, shared.NewDomainError("INVALID_INPUT", "min_price cannot exceed max_price")
	}
	return filter, nil
}

func parsePrice(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil || d.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", field+" must be a non-negative number")
	}
	return &d, nil
}

// GetPublic returns an active product by id or slug
func (s *ProductService) GetPublic(ctx context.Context, idOrSlug, lang string) (*ProductResponse, error) {
	resp, err := readThrough(ctx, s.cache, s.cacheTTL, s.logger, "product:"+lang+":"+strings.ToLower(idOrSlug), func() (*ProductResponse, error) {
		p, err := s.find(ctx, idOrSlug)
		if err != nil {
			return nil, err
		}
		if !p.IsActive() {
			return nil, shared.ErrNotFound
		}
		r := ToProductResponse(p, lang)
		return &r, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Get returns a product by id in any status
func (s *ProductService) Get(ctx context.Context, id uuid.UUID, lang string) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r := ToProductResponse(p, lang)
	return &r, nil
}

func (s *ProductService) find(ctx context.Context, idOrSlug string) (*catalog.Product, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.productRepo.FindByID(ctx, id)
	}
	return s.productRepo.FindBySlug(ctx, idOrSlug)
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest, lang string) (*ProductResponse, error) {
	name, err := localized("name", req.Name, true)
	if err != nil {
		return nil, err
	}
	price, err := valueobject.NewMoney(req.Price, s.currency)
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_PRICE", "Invalid price", err)
	}

	p, err := catalog.NewProduct(strings.ToLower(req.Slug), name, req.Brand, price)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, p.Slug, nil); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	p.SetCategory(req.CategoryID)

	description, err := localized("description", req.Description, false)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateDetails(name, description, req.Brand); err != nil {
		return nil, err
	}
	gender, concentration := catalog.GenderUnisex, catalog.ConcentrationEDP
	if req.Gender != "" {
		gender = catalog.Gender(req.Gender)
	}
	if req.Concentration != "" {
		concentration = catalog.Concentration(req.Concentration)
	}
	if err := p.Classify(gender, concentration, req.SizeML); err != nil {
		return nil, err
	}
	compareAt, err := s.optionalMoney(req.CompareAtPrice)
	if err != nil {
		return nil, err
	}
	if err := p.SetPricing(price, compareAt); err != nil {
		return nil, err
	}
	if req.Notes != nil {
		p.SetNotes(notesFrom(req.Notes))
	}
	if err := p.SetImages(imagesFrom(req.Images)); err != nil {
		return nil, err
	}
	p.SetFeatured(req.Featured)
	if req.Stock > 0 {
		if err := p.AdjustStock(req.Stock, "initial stock"); err != nil {
			return nil, err
		}
	}
	if req.Status == string(catalog.ProductStatusInactive) {
		if err := p.Deactivate(); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p)
	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("slug", p.Slug))

	r := ToProductResponse(p, lang)
	return &r, nil
}

// Update applies a partial update
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest, lang string) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != p.GetVersion() {
		return nil, shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
			fmt.Sprintf("Product was modified: expected version %d, current version %d", *req.Version, p.GetVersion()))
	}

	if req.Slug != nil && strings.ToLower(*req.Slug) != p.Slug {
		slug := strings.ToLower(*req.Slug)
		if err := s.ensureSlugFree(ctx, slug, &p.ID); err != nil {
			return nil, err
		}
		if err := p.ChangeSlug(slug); err != nil {
			return nil, err
		}
	}
	if req.Name != nil || req.Description != nil || req.Brand != nil {
		name, description, brand := p.Name, p.Description, p.Brand
		if req.Name != nil {
			if name, err = localized("name", *req.Name, true); err != nil {
				return nil, err
			}
		}
		if req.Description != nil {
			if description, err = localized("description", *req.Description, false); err != nil {
				return nil, err
			}
		}
		if req.Brand != nil {
			brand = *req.Brand
		}
		if err := p.UpdateDetails(name, description, brand); err != nil {
			return nil, err
		}
	}
	if req.ClearCategory {
		p.SetCategory(nil)
	} else if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		p.SetCategory(req.CategoryID)
	}
	if req.Gender != nil || req.Concentration != nil || req.SizeML != nil {
		gender, concentration, size := p.Gender, p.Concentration, p.SizeML
		if req.Gender != nil {
			gender = catalog.Gender(*req.Gender)
		}
		if req.Concentration != nil {
			concentration = catalog.Concentration(*req.Concentration)
		}
		if req.SizeML != nil {
			size = *req.SizeML
		}
		if err := p.Classify(gender, concentration, size); err != nil {
			return nil, err
		}
	}
	if req.Price != nil || req.CompareAtPrice != nil || req.ClearCompareAt {
		price := p.Price
		if req.Price != nil {
			if price, err = valueobject.NewMoney(*req.Price, s.currency); err != nil {
				return nil, shared.WrapDomainError("INVALID_PRICE", "Invalid price", err)
			}
		}
		compareAt := p.CompareAtPrice
		if req.ClearCompareAt {
			compareAt = nil
		} else if req.CompareAtPrice != nil {
			if compareAt, err = s.optionalMoney(req.CompareAtPrice); err != nil {
				return nil, err
			}
		}
		if err := p.SetPricing(price, compareAt); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		p.SetNotes(notesFrom(req.Notes))
	}
	if req.Images != nil {
		if err := p.SetImages(imagesFrom(*req.Images)); err != nil {
			return nil, err
		}
	}
	if req.Featured != nil {
		p.SetFeatured(*req.Featured)
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p)

	r := ToProductResponse(p, lang)
	return &r, nil
}

// Delete removes a product. Its images are removed by the ProductDeleted handler.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.MarkDeleted()
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, p)
	s.logger.Info("Product deleted", zap.String("product_id", id.String()), zap.String("slug", p.Slug))
	return nil
}

// AdjustStock changes the stock by a signed delta
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest, lang string) (*ProductResponse, error) {
	return s.mutate(ctx, id, lang, func(p *catalog.Product) error {
		return p.AdjustStock(req.Delta, strings.TrimSpace(req.Reason))
	})
}

// Activate puts a product on sale
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID, lang string) (*ProductResponse, error) {
	return s.mutate(ctx, id, lang, (*catalog.Product).Activate)
}

// Deactivate hides a product from the storefront
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID, lang string) (*ProductResponse, error) {
	return s.mutate(ctx, id, lang, (*catalog.Product).Deactivate)
}

func (s *ProductService) mutate(ctx context.Context, id uuid.UUID, lang string, fn func(*catalog.Product) error) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p)
	r := ToProductResponse(p, lang)
	return &r, nil
}

func (s *ProductService) afterWrite(ctx context.Context, p *catalog.Product) {
	invalidate(ctx, s.cache, s.logger)
	event.PublishPending(ctx, s.events, s.logger, p)
}

func (s *ProductService) ensureSlugFree(ctx context.Context, slug string, exclude *uuid.UUID) error {
	exists, err := s.productRepo.ExistsBySlug(ctx, slug, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Product with this slug already exists")
	}
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *ProductService) optionalMoney(amount *decimal.Decimal) (*valueobject.Money, error) {
	if amount == nil {
		return nil, nil
	}
	m, err := valueobject.NewMoney(*amount, s.currency)
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_PRICE", "Invalid compare-at price", err)
	}
	return &m, nil
}

func notesFrom(in *NotesInput) catalog.FragranceNotes {
	return catalog.FragranceNotes{Top: in.Top, Heart: in.Heart, Base: in.Base}
}

func imagesFrom(in []ImageInput) []catalog.ProductImage {
	out := make([]catalog.ProductImage, 0, len(in))
	for _, img := range in {
		out = append(out, catalog.ProductImage{
			URL:       img.URL,
			Key:       strings.TrimSpace(img.Key),
			Alt:       strings.TrimSpace(img.Alt),
			IsPrimary: img.IsPrimary,
		})
	}
	return out
}

// localized validates a translations map from a request
func localized(field string, values map[string]string, required bool) (valueobject.LocalizedText, error) {
	build := valueobject.NewLocalizedText
	if required {
		build = valueobject.NewRequiredLocalizedText
	}
	lt, err := build(values)
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_INPUT", fmt.Sprintf("%s: %s", field, err.Error()), err)
	}
	return lt, nil
}
