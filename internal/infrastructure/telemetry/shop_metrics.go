package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("meter cannot be nil")

// Attribute keys shared by the shop metrics
var (
	AttrPaymentMethod = attribute.Key("payment_method")
	AttrCurrency      = attribute.Key("currency")
	AttrFolder        = attribute.Key("folder")
	AttrContentType   = attribute.Key("content_type")
)

// uploadSizeBuckets are byte boundaries for uploaded image sizes
var uploadSizeBuckets = []float64{16 << 10, 64 << 10, 256 << 10, 1 << 20, 2 << 20, 5 << 20, 10 << 20}

// ShopMetrics records storefront business counters
type ShopMetrics struct {
	ordersPlaced   metric.Int64Counter
	orderRevenue   metric.Float64Counter
	sampleRequests metric.Int64Counter
	mediaUploads   metric.Int64Counter
	uploadSize     metric.Int64Histogram
}

// NewShopMetrics registers the shop instruments on meter
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &ShopMetrics{}
	var err error
	if m.ordersPlaced, err = meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Number of orders placed"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter orders_placed_total: %w", err)
	}
	if m.orderRevenue, err = meter.Float64Counter("order_revenue",
		metric.WithDescription("Total value of placed orders in major currency units"),
		metric.WithUnit("{currency}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter order_revenue: %w", err)
	}
	if m.sampleRequests, err = meter.Int64Counter("sample_requests_total",
		metric.WithDescription("Number of sample requests submitted"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter sample_requests_total: %w", err)
	}
	if m.mediaUploads, err = meter.Int64Counter("media_uploads_total",
		metric.WithDescription("Number of media files uploaded"),
		metric.WithUnit("{file}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter media_uploads_total: %w", err)
	}
	if m.uploadSize, err = meter.Int64Histogram("media_upload_size",
		metric.WithDescription("Size of uploaded media files"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(uploadSizeBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram media_upload_size: %w", err)
	}
	return m, nil
}

// RecordOrderPlaced counts an order and adds its total to the revenue
func (m *ShopMetrics) RecordOrderPlaced(ctx context.Context, paymentMethod, currency string, total decimal.Decimal) {
	attrs := metric.WithAttributes(AttrPaymentMethod.String(paymentMethod), AttrCurrency.String(currency))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderRevenue.Add(ctx, total.InexactFloat64(), attrs)
}

// RecordSampleRequest counts a submitted sample request
func (m *ShopMetrics) RecordSampleRequest(ctx context.Context) {
	m.sampleRequests.Add(ctx, 1)
}

// RecordMediaUpload counts an upload and records its size
func (m *ShopMetrics) RecordMediaUpload(ctx context.Context, folder, contentType string, size int64) {
	attrs := metric.WithAttributes(AttrFolder.String(folder), AttrContentType.String(contentType))
	m.mediaUploads.Add(ctx, 1, attrs)
	m.uploadSize.Record(ctx, size, attrs)
}
