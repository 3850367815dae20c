package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

type fakeMetrics struct {
	orders  int
	revenue decimal.Decimal
	method  string
	samples int
}

func (m *fakeMetrics) RecordOrderPlaced(_ context.Context, method, _ string, total decimal.Decimal) {
	m.orders++
	m.method = method
	m.revenue = m.revenue.Add(total)
}

func (m *fakeMetrics) RecordSampleRequest(context.Context) { m.samples++ }

func placedOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(nil, "guest@example.com", valueobject.Address{
		FullName: "Sara", Phone: "1", Line1: "x", City: "Dubai", Country: "AE",
	}, order.PaymentPayPal, valueobject.USD)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(order.Item{
		ProductID: uuid.New(),
		Name:      valueobject.LocalizedText{"en": "Rose Noir"},
		UnitPrice: valueobject.MustNewMoney("80", valueobject.USD),
		Quantity:  1,
	}))
	require.NoError(t, o.Place())
	return o
}

func TestPublishPending(t *testing.T) {
	o := placedOrder(t)
	pub := &recordingPublisher{}

	PublishPending(context.Background(), pub, zap.NewNop(), o, nil)

	require.Len(t, pub.events, 1)
	assert.Equal(t, order.EventTypeOrderPlaced, pub.events[0].EventType())
	assert.Empty(t, o.GetDomainEvents())

	// a second call has nothing left to send
	PublishPending(context.Background(), pub, zap.NewNop(), o)
	assert.Len(t, pub.events, 1)
}

func TestPublishPending_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	pub := &recordingPublisher{err: errors.New("bus stopped")}

	PublishPending(context.Background(), pub, zap.New(core), placedOrder(t))

	assert.Equal(t, 1, logs.FilterMessage("Failed to publish domain events").Len())
}

func TestShopHandler(t *testing.T) {
	metrics := &fakeMetrics{}
	h := NewShopHandler(metrics, nil)
	ctx := context.Background()

	o := placedOrder(t)
	require.NoError(t, h.Handle(ctx, order.NewOrderPlacedEvent(o)))
	assert.Equal(t, 1, metrics.orders)
	assert.Equal(t, "paypal", metrics.method)
	assert.True(t, metrics.revenue.Equal(decimal.NewFromInt(80)))

	req, err := contact.NewSampleRequest("Mona", "mona@example.com", "", valueobject.Address{},
		[]uuid.UUID{uuid.New()}, "")
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, contact.NewSampleRequestEvent(contact.EventTypeSampleRequestSubmitted, req)))
	require.NoError(t, h.Handle(ctx, contact.NewSampleRequestEvent(contact.EventTypeSampleRequestFulfilled, req)))
	assert.Equal(t, 1, metrics.samples)

	assert.NoError(t, h.Handle(ctx, order.NewOrderCancelledEvent(o)))
	assert.Contains(t, h.EventTypes(), order.EventTypeOrderPlaced)
}

func TestShopHandler_NilMetrics(t *testing.T) {
	h := NewShopHandler(nil, zap.NewNop())
	assert.NoError(t, h.Handle(context.Background(), order.NewOrderPlacedEvent(placedOrder(t))))
}
