package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements catalog.CategoryRepository using gorm
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a category by its slug
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := conn(ctx, r.db).First(&model, "slug = ?", strings.ToLower(slug)).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns categories ordered by sort order then slug
func (r *GormCategoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]catalog.Category, error) {
	query := conn(ctx, r.db).Order("sort_order ASC").Order("slug ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.CategoryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	categories := make([]catalog.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, *rows[i].ToDomain())
	}
	return categories, nil
}

// ExistsBySlug checks if a slug is taken, optionally ignoring one category
func (r *GormCategoryRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.CategoryModel{}).Where("slug = ?", strings.ToLower(slug))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a category with optimistic locking
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return saveVersioned(conn(ctx, r.db), category, models.CategoryModelFromDomain(category))
}

// Delete deletes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.CategoryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
