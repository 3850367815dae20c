package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/content"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContentRepository implements content.Repository using gorm
type GormContentRepository struct {
	db *gorm.DB
}

// NewGormContentRepository creates a new GormContentRepository
func NewGormContentRepository(db *gorm.DB) *GormContentRepository {
	return &GormContentRepository{db: db}
}

// FindByID finds a block by ID
func (r *GormContentRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Block, error) {
	var model models.ContentBlockModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByKey finds a block by its key
func (r *GormContentRepository) FindByKey(ctx context.Context, key string) (*content.Block, error) {
	var model models.ContentBlockModel
	if err := conn(ctx, r.db).First(&model, "key = ?", strings.ToLower(strings.TrimSpace(key))).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByPage returns the blocks of a page ordered by sort order
func (r *GormContentRepository) FindByPage(ctx context.Context, page string, publishedOnly bool) ([]content.Block, error) {
	query := conn(ctx, r.db).Where("page = ?", strings.ToLower(strings.TrimSpace(page)))
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	return r.find(query)
}

// FindAll returns every block grouped by page
func (r *GormContentRepository) FindAll(ctx context.Context) ([]content.Block, error) {
	return r.find(conn(ctx, r.db).Order("page ASC"))
}

func (r *GormContentRepository) find(query *gorm.DB) ([]content.Block, error) {
	var rows []models.ContentBlockModel
	if err := query.Order("sort_order ASC").Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	blocks := make([]content.Block, 0, len(rows))
	for i := range rows {
		blocks = append(blocks, *rows[i].ToDomain())
	}
	return blocks, nil
}

// Save creates or updates a block with optimistic locking
func (r *GormContentRepository) Save(ctx context.Context, block *content.Block) error {
	return saveVersioned(conn(ctx, r.db), block, models.ContentBlockModelFromDomain(block))
}

// Delete deletes a block
func (r *GormContentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.ContentBlockModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ content.Repository = (*GormContentRepository)(nil)
