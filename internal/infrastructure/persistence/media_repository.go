package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/media"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMediaRepository implements media.Repository using gorm
type GormMediaRepository struct {
	db *gorm.DB
}

// NewGormMediaRepository creates a new GormMediaRepository
func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{db: db}
}

// FindByID finds an asset by ID
func (r *GormMediaRepository) FindByID(ctx context.Context, id uuid.UUID) (*media.Asset, error) {
	var model models.MediaAssetModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists assets newest first, optionally within one folder and
// matching a file name search
func (r *GormMediaRepository) FindAll(ctx context.Context, folder string, filter shared.Filter) ([]media.Asset, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&models.MediaAssetModel{})
	if folder != "" {
		query = query.Where("folder = ?", folder)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		query = query.Where("LOWER(file_name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.MediaAssetModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, CommonSortFields, "created_at")).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	assets := make([]media.Asset, 0, len(rows))
	for i := range rows {
		assets = append(assets, *rows[i].ToDomain())
	}
	return assets, total, nil
}

// Save records an asset
func (r *GormMediaRepository) Save(ctx context.Context, asset *media.Asset) error {
	model := &models.MediaAssetModel{}
	model.FromDomain(asset)
	return translateError(conn(ctx, r.db).Save(model).Error)
}

// Delete removes an asset record
func (r *GormMediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.MediaAssetModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ media.Repository = (*GormMediaRepository)(nil)
