package models

import (
	"time"

	"github.com/perfume/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(100);not null"`
	Email        string `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(100);not null"`
	Role         string `gorm:"type:varchar(20);not null;default:'customer';index"`
	Phone        string `gorm:"type:varchar(30)"`
	Active       bool   `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for gorm
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              identity.Role(m.Role),
		Phone:             m.Phone,
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the model from a domain User.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Name = u.Name
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.Role = string(u.Role)
	m.Phone = u.Phone
	m.Active = u.Active
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
