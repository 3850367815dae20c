package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using gorm
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by normalized email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model models.UserModel
	if err := conn(ctx, r.db).First(&model, "email = ?", identity.NormalizeEmail(email)).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of users matching the filter and the total count
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]identity.User, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := conn(ctx, r.db).Model(&models.UserModel{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, UserSortFields, "created_at")).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	users := make([]identity.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].ToDomain())
	}
	return users, total, nil
}

// ExistsByEmail checks if an email is registered
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("email = ?", identity.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a user with optimistic locking
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return saveVersioned(conn(ctx, r.db), user, models.UserModelFromDomain(user))
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
