package media

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/media"
)

// UploadInput is a file received by the upload endpoint
type UploadInput struct {
	Folder     string
	FileName   string
	Size       int64
	Body       io.Reader
	UploadedBy *uuid.UUID
}

// PresignRequest asks for a direct browser upload URL
type PresignRequest struct {
	Folder      string `json:"folder" binding:"max=100"`
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
}

// PresignResponse is a presigned PUT for one object
type PresignResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmUploadRequest records an object uploaded through a presigned URL
type ConfirmUploadRequest struct {
	Key         string `json:"key" binding:"required,max=300"`
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// ListRequest carries the media listing query
type ListRequest struct {
	Folder   string `form:"folder" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
	Search   string `form:"search" binding:"max=100"`
}

// AssetResponse represents a media asset in API responses
type AssetResponse struct {
	ID          uuid.UUID  `json:"id"`
	Key         string     `json:"key"`
	URL         string     `json:"url"`
	Folder      string     `json:"folder"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	SizeHuman   string     `json:"size_human"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToAssetResponse converts a domain asset
func ToAssetResponse(a *media.Asset) AssetResponse {
	return AssetResponse{
		ID:          a.ID,
		Key:         a.Key,
		URL:         a.URL,
		Folder:      a.Folder,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		SizeHuman:   humanize.Bytes(uint64(a.Size)),
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}
