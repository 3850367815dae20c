package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/media"
	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const sniffLen = 512

// Defaults used when the storage config leaves them empty
const (
	DefaultMaxUploadSize = 10 << 20
	DefaultPresignExpiry = 15 * time.Minute
)

// DefaultAllowedContentTypes are the image types accepted for upload
var DefaultAllowedContentTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Upload errors
var (
	ErrFileTooLarge        = shared.NewDomainError("FILE_TOO_LARGE", "File is too large")
	ErrUnsupportedFileType = shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "File type is not allowed")
	ErrObjectMissing       = shared.NewDomainError("OBJECT_NOT_UPLOADED", "Object was not found in storage")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
}

// ServiceConfig holds the upload limits
type ServiceConfig struct {
	MaxUploadSize       int64
	AllowedContentTypes []string
	PresignExpiry       time.Duration
}

// Service handles media uploads
type Service struct {
	repo          media.Repository
	storage       ObjectStorage
	metrics       Metrics
	maxSize       int64
	allowed       map[string]bool
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewService creates a new media Service. metrics may be nil.
func NewService(repo media.Repository, storage ObjectStorage, metrics Metrics, cfg ServiceConfig, logger *zap.Logger) *Service {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = DefaultAllowedContentTypes
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = DefaultPresignExpiry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(cfg.AllowedContentTypes))
	for _, ct := range cfg.AllowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(ct))] = true
	}
	return &Service{
		repo:          repo,
		storage:       storage,
		metrics:       metrics,
		maxSize:       cfg.MaxUploadSize,
		allowed:       allowed,
		presignExpiry: cfg.PresignExpiry,
		logger:        logger,
	}
}

// MaxUploadSize returns the largest accepted file in bytes
func (s *Service) MaxUploadSize() int64 {
	return s.maxSize
}

// Upload stores a file under <folder>/<uuid><ext> and records it. The content
// type is sniffed from the first bytes; the client supplied type is ignored.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*AssetResponse, error) {
	folder, err := media.NormalizeFolder(in.Folder)
	if err != nil {
		return nil, err
	}
	if in.Size > s.maxSize {
		return nil, s.tooLarge(in.Size)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, shared.NewDomainError("INVALID_FILE", "File is empty")
	}
	contentType := sniff(head)
	if !s.allowed[contentType] {
		return nil, shared.WrapDomainError(ErrUnsupportedFileType.Code,
			fmt.Sprintf("File type %s is not allowed", contentType), ErrUnsupportedFileType)
	}

	key := objectKey(folder, contentType, in.FileName)
	body := io.MultiReader(bytes.NewReader(head), in.Body)
	if err := s.storage.Put(ctx, key, body, in.Size, contentType); err != nil {
		s.logger.Error("Failed to store upload", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	asset, err := media.NewAsset(key, s.storage.PublicURL(key), folder, cleanFileName(in.FileName), contentType, in.Size, in.UploadedBy)
	if err == nil {
		err = s.repo.Save(ctx, asset)
	}
	if err != nil {
		s.removeOrphan(ctx, key)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMediaUpload(ctx, folder, contentType, in.Size)
	}
	s.logger.Info("Media uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.String("size", humanize.Bytes(uint64(in.Size))),
	)
	r := ToAssetResponse(asset)
	return &r, nil
}

// PresignUpload returns a presigned PUT URL for a direct browser upload
func (s *Service) PresignUpload(ctx context.Context, req PresignRequest) (*PresignResponse, error) {
	folder, err := media.NormalizeFolder(req.Folder)
	if err != nil {
		return nil, err
	}
	contentType := normalizeContentType(req.ContentType)
	if !s.allowed[contentType] {
		return nil, shared.WrapDomainError(ErrUnsupportedFileType.Code,
			fmt.Sprintf("File type %s is not allowed", contentType), ErrUnsupportedFileType)
	}
	key := objectKey(folder, contentType, req.FileName)
	url, expires, err := s.storage.PresignPut(ctx, key, contentType, s.presignExpiry)
	if err != nil {
		return nil, err
	}
	return &PresignResponse{
		Key:       key,
		UploadURL: url,
		PublicURL: s.storage.PublicURL(key),
		ExpiresAt: expires,
	}, nil
}

// ConfirmUpload records an object the browser uploaded with a presigned URL.
// Size and content type are taken from the stored object; an object that
// breaks the upload limits is removed.
func (s *Service) ConfirmUpload(ctx context.Context, req ConfirmUploadRequest, uploadedBy *uuid.UUID) (*AssetResponse, error) {
	key := strings.TrimLeft(strings.TrimSpace(req.Key), "/")
	folder, err := media.NormalizeFolder(path.Dir(key))
	if err != nil {
		return nil, err
	}
	if !s.allowed[normalizeContentType(req.ContentType)] {
		return nil, ErrUnsupportedFileType
	}
	info, err := s.storage.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrObjectMissing
	}

	contentType := normalizeContentType(info.ContentType)
	if contentType == "" {
		contentType = normalizeContentType(req.ContentType)
	}
	var rejected error
	switch {
	case !s.allowed[contentType]:
		rejected = ErrUnsupportedFileType
	case info.Size > s.maxSize:
		rejected = s.tooLarge(info.Size)
	}
	if rejected != nil {
		s.removeOrphan(ctx, key)
		return nil, rejected
	}

	asset, err := media.NewAsset(key, s.storage.PublicURL(key), folder, cleanFileName(req.FileName), contentType, info.Size, uploadedBy)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, asset); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordMediaUpload(ctx, folder, contentType, info.Size)
	}
	r := ToAssetResponse(asset)
	return &r, nil
}

// List returns assets, optionally within one folder, newest first
func (s *Service) List(ctx context.Context, req ListRequest) (shared.Paginated[AssetResponse], error) {
	folder := ""
	if strings.TrimSpace(req.Folder) != "" {
		f, err := media.NormalizeFolder(req.Folder)
		if err != nil {
			return shared.Paginated[AssetResponse]{}, err
		}
		folder = f
	}
	filter := shared.Filter{Page: req.Page, PageSize: req.PageSize, Search: strings.TrimSpace(req.Search)}.Normalize()
	assets, total, err := s.repo.FindAll(ctx, folder, filter)
	if err != nil {
		return shared.Paginated[AssetResponse]{}, err
	}
	items := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		items = append(items, ToAssetResponse(&assets[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Delete removes the object and its record
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, asset.Key); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", asset.Key, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Media deleted", zap.String("key", asset.Key))
	return nil
}

func (s *Service) tooLarge(size int64) error {
	return shared.WrapDomainError(ErrFileTooLarge.Code,
		fmt.Sprintf("File is %s, the maximum is %s", humanize.Bytes(uint64(size)), humanize.Bytes(uint64(s.maxSize))),
		ErrFileTooLarge)
}

func (s *Service) removeOrphan(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove orphaned object", zap.String("key", key), zap.Error(err))
	}
}

func sniff(head []byte) string {
	return normalizeContentType(http.DetectContentType(head))
}

func normalizeContentType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func objectKey(folder, contentType, fileName string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = strings.ToLower(path.Ext(fileName))
		if ext == "" {
			if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}
	return folder + "/" + uuid.NewString() + ext
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
