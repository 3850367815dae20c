package media

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
)

var folderPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_/][a-z0-9]+)*$`)

// DefaultFolder is used when an upload names no folder
const DefaultFolder = "uploads"

// Asset is a file stored in object storage
type Asset struct {
	shared.BaseEntity
	Key         string
	URL         string
	Folder      string
	FileName    string
	ContentType string
	Size        int64
	UploadedBy  *uuid.UUID
}

// NewAsset records an uploaded object
func NewAsset(key, url, folder, fileName, contentType string, size int64, uploadedBy *uuid.UUID) (*Asset, error) {
	if strings.TrimSpace(key) == "" {
		return nil, shared.NewDomainError("INVALID_KEY", "Object key is required")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE", "File is empty")
	}
	return &Asset{
		BaseEntity:  shared.NewBaseEntity(),
		Key:         key,
		URL:         url,
		Folder:      folder,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
	}, nil
}

// NormalizeFolder lowercases the folder and rejects path tricks like "../"
func NormalizeFolder(folder string) (string, error) {
	folder = strings.Trim(strings.ToLower(strings.TrimSpace(folder)), "/")
	if folder == "" {
		return DefaultFolder, nil
	}
	if len(folder) > 100 || !folderPattern.MatchString(folder) {
		return "", shared.NewDomainError("INVALID_FOLDER", "Folder may only contain lowercase letters, digits, dashes and slashes")
	}
	return folder, nil
}

// Repository defines the interface for media asset persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	FindAll(ctx context.Context, folder string, filter shared.Filter) ([]Asset, int64, error)
	Save(ctx context.Context, asset *Asset) error
	Delete(ctx context.Context, id uuid.UUID) error
}
