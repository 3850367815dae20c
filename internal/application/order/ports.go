package order

import (
	"context"

	"github.com/perfume/backend/internal/domain/order"
)

// Invoice is a rendered invoice document
type Invoice struct {
	FileName    string
	ContentType string
	Body        []byte
}

// InvoiceRenderer renders the invoice of an order in a language
type InvoiceRenderer interface {
	Render(ctx context.Context, o *order.Order, lang string) (*Invoice, error)
}

// CacheInvalidator drops cached reads. Checkout and cancellation change
// stock, so they invalidate the catalog cache.
type CacheInvalidator interface {
	InvalidateNamespace(ctx context.Context, namespace string) error
}
