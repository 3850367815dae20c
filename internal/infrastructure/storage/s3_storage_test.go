package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Endpoint:        endpoint,
		Region:          "us-east-1",
		Bucket:          "perfume-media",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testStorageConfig("http://localhost:9000")
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half configured credentials return error", func(t *testing.T) {
		cfg := testStorageConfig("http://localhost:9000")
		cfg.SecretAccessKey = ""
		_, err := NewS3ObjectStorage(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(ctx, testStorageConfig("http://localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, "perfume-media", storage.GetBucket())
		assert.Equal(t, 10*time.Minute, storage.presignExpiration)
	})

	t.Run("zero presign expiry falls back to default", func(t *testing.T) {
		cfg := testStorageConfig("http://localhost:9000")
		cfg.PresignExpiry = 0
		storage, err := NewS3ObjectStorage(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, storage.presignExpiration)
	})
}

func TestS3ObjectStorageOptions(t *testing.T) {
	storage, err := NewS3ObjectStorage(context.Background(), testStorageConfig("http://localhost:9000"),
		WithLogger(zaptest.NewLogger(t)),
		WithPresignExpiration(time.Hour),
	)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, storage.presignExpiration)
	assert.NotNil(t, storage.logger)
}

func TestS3ObjectStorage_PublicURL(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*config.StorageConfig)
		want   string
	}{
		{
			name:   "public base url wins",
			mutate: func(c *config.StorageConfig) { c.PublicBaseURL = "https://cdn.example.com/" },
			want:   "https://cdn.example.com/products/a.jpg",
		},
		{
			name:   "custom endpoint uses path style link",
			mutate: func(c *config.StorageConfig) {},
			want:   "http://localhost:9000/perfume-media/products/a.jpg",
		},
		{
			name:   "endpoint without scheme gets https",
			mutate: func(c *config.StorageConfig) { c.Endpoint = "minio.internal:9000" },
			want:   "https://minio.internal:9000/perfume-media/products/a.jpg",
		},
		{
			name: "aws virtual host link",
			mutate: func(c *config.StorageConfig) {
				c.Endpoint = ""
				c.UsePathStyle = false
				c.Region = "eu-west-1"
			},
			want: "https://perfume-media.s3.eu-west-1.amazonaws.com/products/a.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStorageConfig("http://localhost:9000")
			tt.mutate(cfg)
			storage, err := NewS3ObjectStorage(ctx, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, storage.PublicURL("/products/a.jpg"))
		})
	}
}

func TestS3ObjectStorage_PresignPut(t *testing.T) {
	storage, err := NewS3ObjectStorage(context.Background(), testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)

	t.Run("generates signed url", func(t *testing.T) {
		before := time.Now()
		url, expiresAt, err := storage.PresignPut(context.Background(), "products/rose.jpg", "image/jpeg", 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "http://localhost:9000/perfume-media/products/rose.jpg"))
		assert.Contains(t, url, "X-Amz-Signature=")
		assert.Contains(t, url, "X-Amz-Expires=300")
		assert.WithinDuration(t, before.Add(5*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("zero expiry uses configured default", func(t *testing.T) {
		url, _, err := storage.PresignPut(context.Background(), "products/rose.jpg", "image/jpeg", 0)
		require.NoError(t, err)
		assert.Contains(t, url, "X-Amz-Expires=600")
	})

	t.Run("empty key returns error", func(t *testing.T) {
		_, _, err := storage.PresignPut(context.Background(), "", "image/jpeg", time.Minute)
		require.Error(t, err)
	})
}

// fakeS3 records the requests it receives and answers like a minimal S3
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	objects      map[string][]byte
	types        map[string]string
	requests     []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/perfume-media")
	switch {
	case path == "" || path == "/":
		switch r.Method {
		case http.MethodHead:
			if !f.bucketExists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.bucketExists = true
		}
		w.WriteHeader(http.StatusOK)
	default:
		key := strings.TrimPrefix(path, "/")
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[key] = body
			f.types[key] = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		case http.MethodHead:
			body, ok := f.objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", f.types[key])
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			delete(f.objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func (f *fakeS3) snapshot() (bool, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bucketExists, append([]string(nil), f.requests...)
}

func newFakeS3Storage(t *testing.T) (*S3ObjectStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	storage, err := NewS3ObjectStorage(context.Background(), testStorageConfig(srv.URL))
	require.NoError(t, err)
	return storage, fake
}

func TestS3ObjectStorage_EnsureBucket(t *testing.T) {
	storage, fake := newFakeS3Storage(t)
	ctx := context.Background()

	require.NoError(t, storage.EnsureBucket(ctx))
	exists, requests := fake.snapshot()
	assert.True(t, exists)
	require.Len(t, requests, 2)
	assert.True(t, strings.HasPrefix(requests[0], "HEAD /perfume-media"))
	assert.True(t, strings.HasPrefix(requests[1], "PUT /perfume-media"))

	// second call finds the bucket
	require.NoError(t, storage.EnsureBucket(ctx))
	_, requests = fake.snapshot()
	assert.Len(t, requests, 3)
}

func TestS3ObjectStorage_PutStatDelete(t *testing.T) {
	storage, fake := newFakeS3Storage(t)
	ctx := context.Background()

	content := "fake image bytes"
	require.NoError(t, storage.Put(ctx, "products/oud.png", strings.NewReader(content), int64(len(content)), "image/png"))

	fake.mu.Lock()
	assert.Contains(t, fake.objects, "products/oud.png")
	fake.mu.Unlock()

	info, err := storage.Stat(ctx, "products/oud.png")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, storage.Delete(ctx, "products/oud.png"))

	info, err = storage.Stat(ctx, "products/oud.png")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestS3ObjectStorage_KeyValidation(t *testing.T) {
	storage, err := NewS3ObjectStorage(context.Background(), testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, storage.Put(ctx, "", strings.NewReader("x"), 1, "image/png"))
	assert.Error(t, storage.Delete(ctx, ""))
	_, err = storage.Stat(ctx, "")
	assert.Error(t, err)
}

func TestStubObjectStorage(t *testing.T) {
	stub := NewStubObjectStorage()
	ctx := context.Background()

	assert.NoError(t, stub.EnsureBucket(ctx))
	assert.ErrorIs(t, stub.Put(ctx, "a.jpg", strings.NewReader("x"), 1, "image/jpeg"), ErrStorageDisabled)

	_, _, err := stub.PresignPut(ctx, "a.jpg", "image/jpeg", time.Minute)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	assert.NoError(t, stub.Delete(ctx, "a.jpg"))
	assert.Error(t, stub.Delete(ctx, ""))

	info, err := stub.Stat(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, "https://storage.invalid/a.jpg", stub.PublicURL("a.jpg"))
}

func TestRequireKey(t *testing.T) {
	assert.ErrorIs(t, requireKey(""), errEmptyKey)
	assert.ErrorIs(t, requireKey("//"), errEmptyKey)
	assert.NoError(t, requireKey("products/oud-royal/1.webp"))
}
