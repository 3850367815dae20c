package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using gorm
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a product by its slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := conn(ctx, r.db).First(&model, "slug = ?", strings.ToLower(slug)).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	return r.findByIDs(conn(ctx, r.db), ids)
}

// FindByIDsForUpdate loads products with SELECT ... FOR UPDATE. It must be
// called inside a transaction; rows are locked in id order to avoid deadlocks.
func (r *GormProductRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	db := conn(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findByIDs(db.Order("id"), ids)
}

func (r *GormProductRepository) findByIDs(db *gorm.DB, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// FindAll returns a page of products matching the filter and the total count
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := r.applyFilter(conn(ctx, r.db).Model(&models.ProductModel{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	field := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
	if field == "name" {
		field = "name_en"
	}
	var rows []models.ProductModel
	if err := query.
		Order(field + " " + ValidateSortOrder(filter.OrderDir)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return productsToDomain(rows), total, nil
}

// FindLowStock returns active products at or below the stock threshold
func (r *GormProductRepository) FindLowStock(ctx context.Context, threshold int, limit int) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := conn(ctx, r.db).
		Where("status = ? AND stock <= ?", catalog.ProductStatusActive, threshold).
		Order("stock ASC").
		Order("name_en ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// ExistsBySlug checks if a slug is taken, optionally ignoring one product
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.ProductModel{}).Where("slug = ?", strings.ToLower(slug))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByCategory counts products in a category
func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// Save creates or updates a product with optimistic locking
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return saveVersioned(conn(ctx, r.db), product, models.ProductModelFromDomain(product))
}

// Delete deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		// name holds every translation as JSON text, so one LIKE covers all languages
		query = query.Where("LOWER(name_en) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(CAST(name AS TEXT)) LIKE ?",
			pattern, pattern, pattern)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Gender != "" {
		query = query.Where("gender = ?", filter.Gender)
	}
	if filter.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(filter.Brand))
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock {
		query = query.Where("stock > 0")
	}
	return query
}

func productsToDomain(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
