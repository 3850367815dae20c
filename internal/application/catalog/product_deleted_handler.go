package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectDeleter removes stored objects by key
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// ProductDeletedHandler removes the images of a deleted product from object storage
type ProductDeletedHandler struct {
	storage ObjectDeleter
	logger  *zap.Logger
}

// NewProductDeletedHandler creates a new ProductDeletedHandler
func NewProductDeletedHandler(storage ObjectDeleter, logger *zap.Logger) *ProductDeletedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductDeletedHandler{storage: storage, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *ProductDeletedHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductDeleted}
}

// Handle deletes every image key. A failed key does not stop the others.
func (h *ProductDeletedHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	e, ok := evt.(*catalog.ProductDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", evt, catalog.EventTypeProductDeleted)
	}
	var errs []error
	for _, key := range e.ImageKeys {
		if err := h.storage.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		h.logger.Debug("Product image removed", zap.String("product_id", e.ProductID.String()), zap.String("key", key))
	}
	if err := errors.Join(errs...); err != nil {
		h.logger.Warn("Failed to remove product images",
			zap.String("product_id", e.ProductID.String()),
			zap.Int("failed", len(errs)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*ProductDeletedHandler)(nil)
