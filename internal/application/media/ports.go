// Package media manages uploaded images and their object storage.
package media

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores uploaded files. Keys are relative to the bucket.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignPut(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
	// Stat returns what the store holds under key, or nil when nothing does
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	PublicURL(key string) string
}

// ObjectInfo is the stored size and content type of an object
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// Metrics records upload figures
type Metrics interface {
	RecordMediaUpload(ctx context.Context, folder, contentType string, size int64)
}
