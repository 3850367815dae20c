package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	mediaapp "github.com/perfume/backend/internal/application/media"
	"github.com/perfume/backend/internal/domain/shared"
)

// ErrStorageDisabled is returned by StubObjectStorage for every write
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "Object storage is not configured")

// StubObjectStorage is used when storage is disabled. Uploads fail with
// ErrStorageDisabled; deletes succeed because nothing was ever stored.
type StubObjectStorage struct {
	BaseURL string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{BaseURL: "https://storage.invalid"}
}

// Ensure StubObjectStorage implements ObjectStorage
var _ mediaapp.ObjectStorage = (*StubObjectStorage)(nil)

// EnsureBucket does nothing
func (s *StubObjectStorage) EnsureBucket(context.Context) error { return nil }

// Put always fails
func (s *StubObjectStorage) Put(context.Context, string, io.Reader, int64, string) error {
	return ErrStorageDisabled
}

// PresignPut always fails
func (s *StubObjectStorage) PresignPut(context.Context, string, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, ErrStorageDisabled
}

// Delete is a no-op
func (s *StubObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// Stat never finds anything
func (s *StubObjectStorage) Stat(context.Context, string) (*mediaapp.ObjectInfo, error) {
	return nil, nil
}

// PublicURL returns a link under BaseURL
func (s *StubObjectStorage) PublicURL(key string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(key, "/")
}
