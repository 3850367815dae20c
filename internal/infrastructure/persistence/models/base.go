package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to a domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from a domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic locking version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from a domain aggregate
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// SetVersion sets the stored version
func (m *AggregateModel) SetVersion(v int) {
	m.Version = v
}

// ToDomainAggregateRoot restores the aggregate root with its stored version
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.RestoreAggregateRoot(m.BaseModel.ToDomain(), m.Version)
}

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&UserModel{},
		&CategoryModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ContentBlockModel{},
		&ContactMessageModel{},
		&SampleRequestModel{},
		&MediaAssetModel{},
	}
}
