package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// ContactMessageModel is the persistence model for a contact Message.
type ContactMessageModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null"`
	Email   string `gorm:"type:varchar(254);not null"`
	Phone   string `gorm:"type:varchar(30)"`
	Subject string `gorm:"type:varchar(200)"`
	Body    string `gorm:"type:text;not null"`
	Read    bool   `gorm:"column:is_read;not null;default:false;index"`
	ReadAt  *time.Time
}

// TableName returns the table name for gorm
func (ContactMessageModel) TableName() string {
	return "contact_messages"
}

// ToDomain converts the persistence model to a domain Message.
func (m *ContactMessageModel) ToDomain() *contact.Message {
	return &contact.Message{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Subject:    m.Subject,
		Body:       m.Body,
		Read:       m.Read,
		ReadAt:     m.ReadAt,
	}
}

// FromDomain populates the model from a domain Message.
func (m *ContactMessageModel) FromDomain(msg *contact.Message) {
	m.FromDomainBaseEntity(msg.BaseEntity)
	m.Name = msg.Name
	m.Email = msg.Email
	m.Phone = msg.Phone
	m.Subject = msg.Subject
	m.Body = msg.Body
	m.Read = msg.Read
	m.ReadAt = msg.ReadAt
}

// SampleRequestModel is the persistence model for the SampleRequest aggregate.
type SampleRequestModel struct {
	AggregateModel
	Reference   string              `gorm:"type:varchar(40);not null;uniqueIndex"`
	UserID      *uuid.UUID          `gorm:"type:uuid;index"`
	Name        string              `gorm:"type:varchar(100);not null"`
	Email       string              `gorm:"type:varchar(254);not null"`
	Phone       string              `gorm:"type:varchar(30)"`
	Address     valueobject.Address `gorm:"type:jsonb"`
	ProductIDs  JSON[[]uuid.UUID]   `gorm:"column:product_ids;type:jsonb;not null"`
	Notes       string              `gorm:"type:text"`
	Status      string              `gorm:"type:varchar(20);not null;index"`
	StatusNote  string              `gorm:"type:varchar(500)"`
	FulfilledAt *time.Time
	CancelledAt *time.Time
}

// TableName returns the table name for gorm
func (SampleRequestModel) TableName() string {
	return "sample_requests"
}

// ToDomain converts the persistence model to a domain SampleRequest.
func (m *SampleRequestModel) ToDomain() *contact.SampleRequest {
	ids := m.ProductIDs.Data
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return &contact.SampleRequest{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Reference:         m.Reference,
		UserID:            m.UserID,
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		ProductIDs:        ids,
		Notes:             m.Notes,
		Status:            contact.SampleStatus(m.Status),
		StatusNote:        m.StatusNote,
		FulfilledAt:       m.FulfilledAt,
		CancelledAt:       m.CancelledAt,
	}
}

// FromDomain populates the model from a domain SampleRequest.
func (m *SampleRequestModel) FromDomain(r *contact.SampleRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.Reference = r.Reference
	m.UserID = r.UserID
	m.Name = r.Name
	m.Email = r.Email
	m.Phone = r.Phone
	m.Address = r.Address
	m.ProductIDs = NewJSON(r.ProductIDs)
	m.Notes = r.Notes
	m.Status = string(r.Status)
	m.StatusNote = r.StatusNote
	m.FulfilledAt = r.FulfilledAt
	m.CancelledAt = r.CancelledAt
}
