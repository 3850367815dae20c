package models

import (
	"github.com/perfume/backend/internal/domain/content"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// ContentBlockModel is the persistence model for a content Block.
type ContentBlockModel struct {
	AggregateModel
	Key       string                    `gorm:"type:varchar(120);not null;uniqueIndex"`
	Page      string                    `gorm:"type:varchar(60);not null;index"`
	Title     valueobject.LocalizedText `gorm:"type:jsonb"`
	Body      valueobject.LocalizedText `gorm:"type:jsonb"`
	ImageURL  string                    `gorm:"type:varchar(500)"`
	Data      JSON[map[string]any]      `gorm:"type:jsonb"`
	Published bool                      `gorm:"not null;default:false;index"`
	SortOrder int                       `gorm:"not null;default:0"`
}

// TableName returns the table name for gorm
func (ContentBlockModel) TableName() string {
	return "content_blocks"
}

// ToDomain converts the persistence model to a domain Block.
func (m *ContentBlockModel) ToDomain() *content.Block {
	data := m.Data.Data
	if data == nil {
		data = map[string]any{}
	}
	return &content.Block{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Key:               m.Key,
		Page:              m.Page,
		Title:             orEmptyText(m.Title),
		Body:              orEmptyText(m.Body),
		ImageURL:          m.ImageURL,
		Data:              data,
		Published:         m.Published,
		SortOrder:         m.SortOrder,
	}
}

// FromDomain populates the model from a domain Block.
func (m *ContentBlockModel) FromDomain(b *content.Block) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Key = b.Key
	m.Page = b.Page
	m.Title = b.Title
	m.Body = b.Body
	m.ImageURL = b.ImageURL
	m.Data = NewJSON(b.Data)
	m.Published = b.Published
	m.SortOrder = b.SortOrder
}

// ContentBlockModelFromDomain creates a persistence model from a domain Block.
func ContentBlockModelFromDomain(b *content.Block) *ContentBlockModel {
	m := &ContentBlockModel{}
	m.FromDomain(b)
	return m
}
