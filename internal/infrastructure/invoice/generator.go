package invoice

import (
	"context"
	"time"

	orderapp "github.com/perfume/backend/internal/application/order"
	"github.com/perfume/backend/internal/domain/order"
	"go.uber.org/zap"
)

// Converter turns an HTML document into PDF bytes
type Converter interface {
	Convert(ctx context.Context, html []byte) ([]byte, error)
}

// Generator implements orderapp.InvoiceRenderer. Without a converter it
// serves the HTML document itself.
type Generator struct {
	storeName string
	converter Converter
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerator creates a Generator. converter may be nil.
func NewGenerator(storeName string, converter Converter, logger *zap.Logger) *Generator {
	if storeName == "" {
		storeName = "Maison"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{storeName: storeName, converter: converter, logger: logger, now: time.Now}
}

// Render renders the invoice of o
func (g *Generator) Render(ctx context.Context, o *order.Order, lang string) (*orderapp.Invoice, error) {
	html, err := RenderHTML(o, lang, g.storeName, g.now())
	if err != nil {
		return nil, err
	}
	if g.converter == nil {
		return &orderapp.Invoice{
			FileName:    "invoice-" + o.Number + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        html,
		}, nil
	}
	pdf, err := g.converter.Convert(ctx, html)
	if err != nil {
		g.logger.Error("Failed to convert invoice to PDF",
			zap.String("order_number", o.Number),
			zap.Error(err),
		)
		return nil, err
	}
	return &orderapp.Invoice{
		FileName:    "invoice-" + o.Number + ".pdf",
		ContentType: "application/pdf",
		Body:        pdf,
	}, nil
}

var _ orderapp.InvoiceRenderer = (*Generator)(nil)
