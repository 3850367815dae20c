package models

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/media"
)

// MediaAssetModel is the persistence model for a media Asset.
type MediaAssetModel struct {
	BaseModel
	Key         string     `gorm:"type:varchar(300);not null;uniqueIndex"`
	URL         string     `gorm:"type:varchar(700);not null"`
	Folder      string     `gorm:"type:varchar(120);not null;index"`
	FileName    string     `gorm:"type:varchar(255)"`
	ContentType string     `gorm:"type:varchar(100);not null"`
	Size        int64      `gorm:"not null"`
	UploadedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for gorm
func (MediaAssetModel) TableName() string {
	return "media_assets"
}

// ToDomain converts the persistence model to a domain Asset.
func (m *MediaAssetModel) ToDomain() *media.Asset {
	return &media.Asset{
		BaseEntity:  m.BaseModel.ToDomain(),
		Key:         m.Key,
		URL:         m.URL,
		Folder:      m.Folder,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Size:        m.Size,
		UploadedBy:  m.UploadedBy,
	}
}

// FromDomain populates the model from a domain Asset.
func (m *MediaAssetModel) FromDomain(a *media.Asset) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Key = a.Key
	m.URL = a.URL
	m.Folder = a.Folder
	m.FileName = a.FileName
	m.ContentType = a.ContentType
	m.Size = a.Size
	m.UploadedBy = a.UploadedBy
}
