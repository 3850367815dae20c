package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContactMessageRepository implements contact.MessageRepository using gorm
type GormContactMessageRepository struct {
	db *gorm.DB
}

// NewGormContactMessageRepository creates a new GormContactMessageRepository
func NewGormContactMessageRepository(db *gorm.DB) *GormContactMessageRepository {
	return &GormContactMessageRepository{db: db}
}

// FindByID finds a message by ID
func (r *GormContactMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.Message, error) {
	var model models.ContactMessageModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns messages newest first
func (r *GormContactMessageRepository) FindAll(ctx context.Context, filter contact.MessageFilter) ([]contact.Message, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := conn(ctx, r.db).Model(&models.ContactMessageModel{})
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ? OR LOWER(subject) LIKE ?", pattern, pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ContactMessageModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, CommonSortFields, "created_at")).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	messages := make([]contact.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, *rows[i].ToDomain())
	}
	return messages, total, nil
}

// CountUnread counts messages not yet read
func (r *GormContactMessageRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ContactMessageModel{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// Save creates or updates a message
func (r *GormContactMessageRepository) Save(ctx context.Context, m *contact.Message) error {
	model := &models.ContactMessageModel{}
	model.FromDomain(m)
	return translateError(conn(ctx, r.db).Save(model).Error)
}

// Delete deletes a message
func (r *GormContactMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.ContactMessageModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormSampleRequestRepository implements contact.SampleRequestRepository using gorm
type GormSampleRequestRepository struct {
	db *gorm.DB
}

// NewGormSampleRequestRepository creates a new GormSampleRequestRepository
func NewGormSampleRequestRepository(db *gorm.DB) *GormSampleRequestRepository {
	return &GormSampleRequestRepository{db: db}
}

// FindByID finds a sample request by ID
func (r *GormSampleRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.SampleRequest, error) {
	var model models.SampleRequestModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByReference finds a sample request by its SMP- reference
func (r *GormSampleRequestRepository) FindByReference(ctx context.Context, reference string) (*contact.SampleRequest, error) {
	var model models.SampleRequestModel
	if err := conn(ctx, r.db).First(&model, "reference = ?", strings.TrimSpace(reference)).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns sample requests newest first
func (r *GormSampleRequestRepository) FindAll(ctx context.Context, filter contact.SampleFilter) ([]contact.SampleRequest, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := conn(ctx, r.db).Model(&models.SampleRequestModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ? OR LOWER(reference) LIKE ?", pattern, pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.SampleRequestModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, CommonSortFields, "created_at")).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	requests := make([]contact.SampleRequest, 0, len(rows))
	for i := range rows {
		requests = append(requests, *rows[i].ToDomain())
	}
	return requests, total, nil
}

// CountByStatus counts sample requests in a status
func (r *GormSampleRequestRepository) CountByStatus(ctx context.Context, status contact.SampleStatus) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.SampleRequestModel{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Save creates or updates a sample request with optimistic locking
func (r *GormSampleRequestRepository) Save(ctx context.Context, req *contact.SampleRequest) error {
	model := &models.SampleRequestModel{}
	model.FromDomain(req)
	return saveVersioned(conn(ctx, r.db), req, model)
}

var (
	_ contact.MessageRepository       = (*GormContactMessageRepository)(nil)
	_ contact.SampleRequestRepository = (*GormSampleRequestRepository)(nil)
)
