package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/perfume/backend/internal/infrastructure/cache"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/perfume/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	products    *ProductService
	categories  *CategoryService
	productRepo catalog.ProductRepository
	events      *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	c := cache.NewInMemoryCache()
	events := &recordingPublisher{}
	return &fixture{
		products:    NewProductService(productRepo, categoryRepo, c, events, ProductServiceConfig{Currency: "EGP"}, nil),
		categories:  NewCategoryService(categoryRepo, productRepo, c, 0, events, nil),
		productRepo: productRepo,
		events:      events,
	}
}

func (f *fixture) createProduct(t *testing.T, slug string, price string, stock int) *ProductResponse {
	t.Helper()
	p, err := f.products.Create(context.Background(), CreateProductRequest{
		Slug:  slug,
		Name:  map[string]string{"en": "Oud " + slug, "ar": "عود " + slug},
		Brand: "Maison",
		Price: decimal.RequireFromString(price),
		Stock: stock,
		Images: []ImageInput{
			{URL: "https://cdn.example.com/products/" + slug + ".jpg", Key: "products/" + slug + ".jpg", IsPrimary: true},
		},
	}, "en")
	require.NoError(t, err)
	return p
}

func TestProductService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.createProduct(t, "royal-oud", "120.50", 7)
	assert.Equal(t, "Oud royal-oud", p.Name)
	assert.Equal(t, "EGP", p.Currency)
	assert.Equal(t, 7, p.Stock)
	assert.True(t, p.InStock)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, "unisex", p.Gender)
	assert.Equal(t, "عود royal-oud", p.Translations.Name.Get("ar"))
	assert.Contains(t, f.events.types(), catalog.EventTypeProductCreated)

	_, err := f.products.Create(ctx, CreateProductRequest{
		Slug:  "royal-oud",
		Name:  map[string]string{"en": "Duplicate"},
		Price: decimal.NewFromInt(10),
	}, "en")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	missing := uuid.New()
	_, err = f.products.Create(ctx, CreateProductRequest{
		Name:       map[string]string{"en": "Orphan"},
		Price:      decimal.NewFromInt(10),
		CategoryID: &missing,
	}, "en")
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_CATEGORY", derr.Code)
}

func TestProductService_CreateGeneratesSlug(t *testing.T) {
	f := newFixture(t)
	p, err := f.products.Create(context.Background(), CreateProductRequest{
		Name:  map[string]string{"en": "Amber Night"},
		Price: decimal.NewFromInt(90),
	}, "ar")
	require.NoError(t, err)
	assert.Equal(t, "amber-night", p.Slug)
	// no arabic translation: falls back to english
	assert.Equal(t, "Amber Night", p.Name)
}

func TestProductService_CreateRejectsUnknownLanguage(t *testing.T) {
	f := newFixture(t)
	_, err := f.products.Create(context.Background(), CreateProductRequest{
		Name:  map[string]string{"xx": "Nope"},
		Price: decimal.NewFromInt(90),
	}, "en")
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_INPUT", derr.Code)
}

func TestProductService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "musk", "50", 3)

	stale := p.Version + 5
	_, err := f.products.Update(ctx, p.ID, UpdateProductRequest{Version: &stale}, "en")
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	price := decimal.NewFromInt(60)
	compareAt := decimal.NewFromInt(80)
	brand := "New Maison"
	featured := true
	version := p.Version
	updated, err := f.products.Update(ctx, p.ID, UpdateProductRequest{
		Price:          &price,
		CompareAtPrice: &compareAt,
		Brand:          &brand,
		Featured:       &featured,
		Version:        &version,
	}, "en")
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	require.NotNil(t, updated.CompareAtPrice)
	assert.True(t, updated.CompareAtPrice.Equal(compareAt))
	assert.Equal(t, "New Maison", updated.Brand)
	assert.True(t, updated.Featured)
	assert.Greater(t, updated.Version, p.Version)

	other := f.createProduct(t, "other", "10", 1)
	taken := "musk"
	_, err = f.products.Update(ctx, other.ID, UpdateProductRequest{Slug: &taken}, "en")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	cleared, err := f.products.Update(ctx, p.ID, UpdateProductRequest{ClearCompareAt: true}, "en")
	require.NoError(t, err)
	assert.Nil(t, cleared.CompareAtPrice)
}

func TestProductService_AdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "vetiver", "70", 2)

	res, err := f.products.AdjustStock(ctx, p.ID, AdjustStockRequest{Delta: 5, Reason: "restock"}, "en")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Stock)

	_, err = f.products.AdjustStock(ctx, p.ID, AdjustStockRequest{Delta: -8, Reason: "damaged"}, "en")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	stored, err := f.productRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Stock)
}

func TestProductService_PublicViewHidesInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.createProduct(t, "rose", "40", 1)
	hidden := f.createProduct(t, "iris", "45", 1)

	_, err := f.products.Deactivate(ctx, hidden.ID, "en")
	require.NoError(t, err)
	_, err = f.products.Deactivate(ctx, hidden.ID, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	page, err := f.products.ListPublic(ctx, ListProductsRequest{}, "en")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, active.ID, page.Items[0].ID)

	admin, err := f.products.List(ctx, ListProductsRequest{}, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(2), admin.Total)

	_, err = f.products.GetPublic(ctx, "iris", "en")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	got, err := f.products.GetPublic(ctx, active.ID.String(), "en")
	require.NoError(t, err)
	assert.Equal(t, "rose", got.Slug)
}

func TestProductService_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createProduct(t, "cheap", "10", 0)
	f.createProduct(t, "mid", "50", 4)
	f.createProduct(t, "lux", "300", 2)

	min, max := "20", "400"
	page, err := f.products.List(ctx, ListProductsRequest{MinPrice: &min, MaxPrice: &max, OrderBy: "price", OrderDir: "asc"}, "en")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "mid", page.Items[0].Slug)
	assert.Equal(t, "lux", page.Items[1].Slug)

	page, err = f.products.List(ctx, ListProductsRequest{InStock: true}, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	bad, worse := "500", "100"
	_, err = f.products.List(ctx, ListProductsRequest{MinPrice: &bad, MaxPrice: &worse}, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	unknown := "no-such-category"
	_, err = f.products.List(ctx, ListProductsRequest{Category: unknown}, "en")
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_CATEGORY", derr.Code)
}

func TestProductService_CacheInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "saffron", "99", 3)

	first, err := f.products.GetPublic(ctx, "saffron", "en")
	require.NoError(t, err)
	assert.Equal(t, 3, first.Stock)

	// a write that bypasses the service is not visible until the cache is invalidated
	stored, err := f.productRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, stored.AdjustStock(1, "direct"))
	require.NoError(t, f.productRepo.Save(ctx, stored))

	cached, err := f.products.GetPublic(ctx, "saffron", "en")
	require.NoError(t, err)
	assert.Equal(t, 3, cached.Stock)

	_, err = f.products.AdjustStock(ctx, p.ID, AdjustStockRequest{Delta: 1, Reason: "restock"}, "en")
	require.NoError(t, err)

	fresh, err := f.products.GetPublic(ctx, "saffron", "en")
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.Stock)
}

func TestProductService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "leather", "150", 1)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	_, err := f.products.Get(ctx, p.ID, "en")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.products.Delete(ctx, p.ID), shared.ErrNotFound)

	var deleted *catalog.ProductDeletedEvent
	for _, e := range f.events.events {
		if d, ok := e.(*catalog.ProductDeletedEvent); ok {
			deleted = d
		}
	}
	require.NotNil(t, deleted)
	assert.Equal(t, []string{"products/leather.jpg"}, deleted.ImageKeys)
}

func TestCategoryService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.categories.Create(ctx, CategoryRequest{
		Name:      map[string]string{"en": "Oriental", "ar": "شرقي"},
		SortOrder: 2,
	}, "ar")
	require.NoError(t, err)
	assert.Equal(t, "oriental", c.Slug)
	assert.Equal(t, "شرقي", c.Name)
	assert.True(t, c.Active)

	_, err = f.categories.Create(ctx, CategoryRequest{Slug: "oriental", Name: map[string]string{"en": "Again"}}, "en")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	inactive := false
	hidden, err := f.categories.Create(ctx, CategoryRequest{Slug: "archive", Name: map[string]string{"en": "Archive"}, Active: &inactive}, "en")
	require.NoError(t, err)

	public, err := f.categories.ListPublic(ctx, "en")
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "oriental", public[0].Slug)

	all, err := f.categories.List(ctx, "en")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := f.categories.Update(ctx, c.ID, CategoryRequest{Slug: "east", Name: map[string]string{"en": "East"}}, "en")
	require.NoError(t, err)
	assert.Equal(t, "east", updated.Slug)
	got, err := f.categories.Get(ctx, "east", "en")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.products.Create(ctx, CreateProductRequest{
		Name:       map[string]string{"en": "Bakhoor"},
		Price:      decimal.NewFromInt(25),
		CategoryID: &c.ID,
	}, "en")
	require.NoError(t, err)

	err = f.categories.Delete(ctx, c.ID)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CATEGORY_IN_USE", derr.Code)

	require.NoError(t, f.categories.Delete(ctx, hidden.ID))
	_, err = f.categories.Get(ctx, hidden.ID.String(), "en")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type fakeDeleter struct {
	deleted []string
	fail    map[string]bool
}

func (d *fakeDeleter) Delete(_ context.Context, key string) error {
	if d.fail[key] {
		return errors.New("boom")
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func TestProductDeletedHandler(t *testing.T) {
	p, err := catalog.NewProduct("gift-set", map[string]string{"en": "Gift"}, "", mustMoney("10"))
	require.NoError(t, err)
	require.NoError(t, p.SetImages([]catalog.ProductImage{
		{URL: "https://cdn/a.jpg", Key: "products/a.jpg", IsPrimary: true},
		{URL: "https://cdn/b.jpg", Key: "products/b.jpg"},
		{URL: "https://external/c.jpg"},
	}))

	deleter := &fakeDeleter{fail: map[string]bool{"products/a.jpg": true}}
	h := NewProductDeletedHandler(deleter, nil)
	assert.Equal(t, []string{catalog.EventTypeProductDeleted}, h.EventTypes())

	err = h.Handle(context.Background(), catalog.NewProductDeletedEvent(p))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "products/a.jpg")
	assert.Equal(t, []string{"products/b.jpg"}, deleter.deleted)

	assert.Error(t, h.Handle(context.Background(), catalog.NewProductCreatedEvent(p)))
}

func mustMoney(amount string) valueobject.Money {
	return valueobject.MustNewMoney(amount, "EGP")
}
