package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/perfume/backend/internal/infrastructure/cache"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/perfume/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
	method order.PaymentMethod
}

func (m *mockGateway) Method() order.PaymentMethod { return m.method }

func (m *mockGateway) CreatePayment(ctx context.Context, req *order.PaymentRequest) (*order.PaymentSession, error) {
	args := m.Called(ctx, req)
	if s, ok := args.Get(0).(*order.PaymentSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Capture(ctx context.Context, reference string) (*order.PaymentResult, error) {
	args := m.Called(ctx, reference)
	if r, ok := args.Get(0).(*order.PaymentResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) VerifyCallback(payload []byte, signature string) (*order.PaymentResult, error) {
	args := m.Called(payload, signature)
	if r, ok := args.Get(0).(*order.PaymentResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, o *order.Order, lang string) (*Invoice, error) {
	return &Invoice{FileName: o.Number + ".html", ContentType: "text/html", Body: []byte(lang)}, nil
}

type fixture struct {
	svc      *Service
	stats    *StatsService
	products catalog.ProductRepository
	orders   order.Repository
	db       *persistence.Database
	paypal   *mockGateway
	paymob   *mockGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	products := persistence.NewGormProductRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	paypal := &mockGateway{method: order.PaymentPayPal}
	paymob := &mockGateway{method: order.PaymentPaymob}
	svc := NewService(ServiceConfig{
		Orders:       orders,
		Products:     products,
		Transactions: db,
		Idempotency:  store,
		CatalogCache: cache.NewInMemoryCache(),
		Gateways:     []order.PaymentGateway{paypal, paymob},
		Invoices:     fakeRenderer{},
		Shipping: order.ShippingPolicy{
			FlatFee:       valueobject.MustNewMoney("50", "EGP"),
			FreeThreshold: valueobject.MustNewMoney("1000", "EGP"),
		},
		Currency: "EGP",
	})
	stats := NewStatsService(orders, products,
		persistence.NewGormSampleRequestRepository(db.DB),
		persistence.NewGormContactMessageRepository(db.DB),
		"EGP", nil)
	return &fixture{svc: svc, stats: stats, products: products, orders: orders, db: db, paypal: paypal, paymob: paymob}
}

func (f *fixture) product(t *testing.T, slug, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(slug, valueobject.LocalizedText{"en": "Oud " + slug, "ar": "عود"}, "Maison", valueobject.MustNewMoney(price, "EGP"))
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.AdjustStock(stock, "seed"))
	}
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func shipping() AddressInput {
	return AddressInput{
		FullName: "Layla Hassan",
		Phone:    "+201001234567",
		Line1:    "12 Nile St",
		City:     "Cairo",
		Country:  "eg",
	}
}

func (f *fixture) place(t *testing.T, userID *uuid.UUID, method string, items ...PlaceOrderItem) *OrderResponse {
	t.Helper()
	req := PlaceOrderRequest{Items: items, Shipping: shipping(), PaymentMethod: method}
	if userID == nil {
		req.GuestEmail = "guest@example.com"
	}
	res, err := f.svc.Place(context.Background(), PlaceOrderCommand{Request: req, UserID: userID}, "en")
	require.NoError(t, err)
	return &res.Order
}

func TestPlace_ReservesStockAndComputesTotals(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "amber", "120", 5)
	b := f.product(t, "musk", "80", 3)
	user := uuid.New()

	o := f.place(t, &user, "cod",
		PlaceOrderItem{ProductID: a.ID, Quantity: 2},
		PlaceOrderItem{ProductID: b.ID, Quantity: 1},
		PlaceOrderItem{ProductID: a.ID, Quantity: 1},
	)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "unpaid", o.PaymentStatus)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, 4, o.ItemCount)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(440)), o.Subtotal.String())
	assert.True(t, o.ShippingFee.Equal(decimal.NewFromInt(50)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(490)))
	assert.Equal(t, "EG", o.Shipping.Country)
	assert.Regexp(t, `^ORD-`, o.Number)

	assert.Equal(t, 2, f.stock(t, a.ID))
	assert.Equal(t, 2, f.stock(t, b.ID))
}

func TestPlace_FreeShippingAboveThreshold(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "royal", "600", 5)
	o := f.place(t, nil, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 2})
	assert.True(t, o.ShippingFee.IsZero())
	assert.True(t, o.Total.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, "guest@example.com", o.GuestEmail)
}

func TestPlace_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "rose", "100", 5)
	b := f.product(t, "iris", "100", 1)

	_, err := f.svc.Place(context.Background(), PlaceOrderCommand{Request: PlaceOrderRequest{
		Items: []PlaceOrderItem{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 2},
		},
		Shipping:      shipping(),
		PaymentMethod: "cod",
		GuestEmail:    "guest@example.com",
	}}, "en")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
	page, err := f.svc.List(context.Background(), ListOrdersRequest{}, "en")
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestPlace_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "vetiver", "100", 5)
	inactive := f.product(t, "hidden", "100", 5)
	stored, err := f.products.FindByID(ctx, inactive.ID)
	require.NoError(t, err)
	require.NoError(t, stored.Deactivate())
	require.NoError(t, f.products.Save(ctx, stored))

	tests := []struct {
		name string
		req  PlaceOrderRequest
		code string
	}{
		{
			name: "guest without email",
			req:  PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: p.ID, Quantity: 1}}, Shipping: shipping(), PaymentMethod: "cod"},
			code: "INVALID_CUSTOMER",
		},
		{
			name: "inactive product",
			req:  PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: inactive.ID, Quantity: 1}}, Shipping: shipping(), PaymentMethod: "cod", GuestEmail: "g@example.com"},
			code: "PRODUCT_UNAVAILABLE",
		},
		{
			name: "unknown product",
			req:  PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: uuid.New(), Quantity: 1}}, Shipping: shipping(), PaymentMethod: "cod", GuestEmail: "g@example.com"},
			code: "PRODUCT_UNAVAILABLE",
		},
		{
			name: "missing address line",
			req:  PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: p.ID, Quantity: 1}}, Shipping: AddressInput{FullName: "A", Phone: "1", City: "C", Country: "EG"}, PaymentMethod: "cod", GuestEmail: "g@example.com"},
			code: "INVALID_ADDRESS",
		},
		{
			name: "quantity above the line limit after merging",
			req: PlaceOrderRequest{Items: []PlaceOrderItem{
				{ProductID: p.ID, Quantity: 15},
				{ProductID: p.ID, Quantity: 10},
			}, Shipping: shipping(), PaymentMethod: "cod", GuestEmail: "g@example.com"},
			code: "INSUFFICIENT_STOCK",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Place(ctx, PlaceOrderCommand{Request: tt.req}, "en")
			var derr *shared.DomainError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.code, derr.Code)
		})
	}
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestPlace_IdempotencyKeyReplaysOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "saffron", "100", 5)
	user := uuid.New()
	cmd := PlaceOrderCommand{
		Request:        PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: p.ID, Quantity: 1}}, Shipping: shipping(), PaymentMethod: "cod"},
		UserID:         &user,
		IdempotencyKey: "checkout-1",
	}

	first, err := f.svc.Place(ctx, cmd, "en")
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.Place(ctx, cmd, "en")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.Number, second.Order.Number)
	assert.Equal(t, 4, f.stock(t, p.ID))

	// a failed checkout releases its key
	fail := cmd
	fail.IdempotencyKey = "checkout-2"
	fail.Request.Items = []PlaceOrderItem{{ProductID: p.ID, Quantity: 9}}
	_, err = f.svc.Place(ctx, fail, "en")
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	fail.Request.Items = []PlaceOrderItem{{ProductID: p.ID, Quantity: 1}}
	res, err := f.svc.Place(ctx, fail, "en")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
}

// flakyCompleteStore fails the first failures calls to Complete
type flakyCompleteStore struct {
	*cache.InMemoryIdempotencyStore
	failures int
	calls    int
}

func (s *flakyCompleteStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("redis: connection reset")
	}
	return s.InMemoryIdempotencyStore.Complete(ctx, key, result, ttl)
}

func TestPlace_IdempotencyCompleteFailure(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantCalls    int
		wantReplayed bool
	}{
		{"transient failure is retried", 1, 2, true},
		{"persistent failure releases the key", 100, completeAttempts, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			inner := cache.NewInMemoryIdempotencyStore()
			t.Cleanup(func() { _ = inner.Close() })
			store := &flakyCompleteStore{InMemoryIdempotencyStore: inner, failures: tt.failures}
			svc := NewService(ServiceConfig{
				Orders:       f.orders,
				Products:     f.products,
				Transactions: f.db,
				Idempotency:  store,
				CatalogCache: cache.NewInMemoryCache(),
				Invoices:     fakeRenderer{},
				Shipping: order.ShippingPolicy{
					FlatFee:       valueobject.MustNewMoney("50", "EGP"),
					FreeThreshold: valueobject.MustNewMoney("1000", "EGP"),
				},
				Currency: "EGP",
			})

			p := f.product(t, "vetiver", "100", 5)
			user := uuid.New()
			cmd := PlaceOrderCommand{
				Request:        PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: p.ID, Quantity: 1}}, Shipping: shipping(), PaymentMethod: "cod"},
				UserID:         &user,
				IdempotencyKey: "checkout-flaky",
			}
			first, err := svc.Place(ctx, cmd, "en")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, store.calls)

			store.failures = 0
			second, err := svc.Place(ctx, cmd, "en")
			require.NoError(t, err, "a retry never sees REQUEST_IN_PROGRESS")
			assert.Equal(t, tt.wantReplayed, second.Replayed)
			if tt.wantReplayed {
				assert.Equal(t, first.Order.Number, second.Order.Number)
			}
		})
	}
}

func TestGet_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "oud", "100", 5)
	owner := uuid.New()
	o := f.place(t, &owner, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 1})

	_, err := f.svc.Get(ctx, o.ID, Actor{UserID: owner}, "en")
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, o.ID, Actor{IsAdmin: true}, "en")
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, o.ID, Actor{UserID: uuid.New()}, "en")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = f.svc.Get(ctx, o.ID, Actor{GuestEmail: "guest@example.com"}, "en")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	guest := f.place(t, nil, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 1})
	_, err = f.svc.Get(ctx, guest.ID, Actor{GuestEmail: "GUEST@example.com"}, "en")
	require.NoError(t, err)
	tracked, err := f.svc.Track(ctx, TrackOrderRequest{Number: guest.Number, Email: "guest@example.com"}, "ar")
	require.NoError(t, err)
	assert.Equal(t, "عود", tracked.Items[0].Name)
	_, err = f.svc.Track(ctx, TrackOrderRequest{Number: guest.Number, Email: "other@example.com"}, "en")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	mine, err := f.svc.ListMine(ctx, owner, ListOrdersRequest{}, "en")
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, o.ID, mine.Items[0].ID)
}

func TestCancel_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "jasmine", "100", 5)
	owner := uuid.New()
	o := f.place(t, &owner, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 3})
	require.Equal(t, 2, f.stock(t, p.ID))

	_, err := f.svc.Cancel(ctx, o.ID, Actor{UserID: uuid.New()}, CancelOrderRequest{}, "en")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	cancelled, err := f.svc.Cancel(ctx, o.ID, Actor{UserID: owner}, CancelOrderRequest{Reason: "changed my mind"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.Equal(t, 5, f.stock(t, p.ID))

	_, err = f.svc.Cancel(ctx, o.ID, Actor{IsAdmin: true}, CancelOrderRequest{}, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCancel_CustomerOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "cedar", "100", 5)
	owner := uuid.New()
	o := f.place(t, &owner, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 1})

	_, err := f.svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "confirmed"}, "en")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, o.ID, Actor{UserID: owner}, CancelOrderRequest{}, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	res, err := f.svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "cancelled", Reason: "out of stock"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Status)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "neroli", "100", 5)
	o := f.place(t, nil, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 1})

	_, err := f.svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "shipped"}, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	for _, st := range []string{"confirmed", "shipped", "delivered"} {
		res, err := f.svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: st}, "en")
		require.NoError(t, err, st)
		assert.Equal(t, st, res.Status)
	}
	got, err := f.svc.Get(ctx, o.ID, Actor{IsAdmin: true}, "en")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.PaymentStatus)
	assert.NotNil(t, got.DeliveredAt)

	_, err = f.svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "cancelled"}, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestStartPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "tobacco", "100", 5)
	owner := uuid.New()

	cod := f.place(t, &owner, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 1})
	_, err := f.svc.StartPayment(ctx, cod.ID, Actor{UserID: owner})
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_PAYMENT_METHOD", derr.Code)

	o := f.place(t, &owner, "paypal", PlaceOrderItem{ProductID: p.ID, Quantity: 1})
	f.paypal.On("CreatePayment", mock.Anything, mock.MatchedBy(func(r *order.PaymentRequest) bool {
		return r.OrderNumber == o.Number && r.Email == "buyer@example.com" && r.Amount.Amount().Equal(decimal.NewFromInt(150))
	})).Return(&order.PaymentSession{Method: order.PaymentPayPal, Reference: "PP-123", RedirectURL: "https://paypal.test/approve"}, nil).Once()

	session, err := f.svc.StartPayment(ctx, o.ID, Actor{UserID: owner, Email: "buyer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "PP-123", session.Reference)
	assert.Equal(t, "https://paypal.test/approve", session.RedirectURL)
	f.paypal.AssertExpectations(t)

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PP-123", stored.PaymentRef)
}

func TestCapturePayPal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "lavender", "100", 5)
	owner := uuid.New()
	actor := Actor{UserID: owner, Email: "buyer@example.com"}
	o := f.place(t, &owner, "paypal", PlaceOrderItem{ProductID: p.ID, Quantity: 1})

	f.paypal.On("CreatePayment", mock.Anything, mock.Anything).
		Return(&order.PaymentSession{Method: order.PaymentPayPal, Reference: "PP-9"}, nil)
	_, err := f.svc.StartPayment(ctx, o.ID, actor)
	require.NoError(t, err)

	_, err = f.svc.CapturePayPal(ctx, o.ID, actor, CapturePayPalRequest{PayPalOrderID: "PP-other"}, "en")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	f.paypal.On("Capture", mock.Anything, "PP-9").
		Return(&order.PaymentResult{Reference: "PP-9", TransactionID: "CAP-1", Success: true}, nil).Once()
	paid, err := f.svc.CapturePayPal(ctx, o.ID, actor, CapturePayPalRequest{PayPalOrderID: "PP-9"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.PaymentStatus)
	assert.Equal(t, "confirmed", paid.Status)

	// a second capture does not reach the provider
	again, err := f.svc.CapturePayPal(ctx, o.ID, actor, CapturePayPalRequest{PayPalOrderID: "PP-9"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "paid", again.PaymentStatus)
	f.paypal.AssertNumberOfCalls(t, "Capture", 1)
}

func TestPaymobCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "oudh", "100", 5)
	o := f.place(t, nil, "paymob", PlaceOrderItem{ProductID: p.ID, Quantity: 1})

	f.paymob.On("CreatePayment", mock.Anything, mock.Anything).
		Return(&order.PaymentSession{Method: order.PaymentPaymob, Reference: "7001"}, nil)
	_, err := f.svc.StartPayment(ctx, o.ID, Actor{GuestEmail: "guest@example.com"})
	require.NoError(t, err)

	f.paymob.On("VerifyCallback", []byte("bad"), "sig").Return(nil, order.ErrInvalidSignature)
	assert.ErrorIs(t, f.svc.PaymobCallback(ctx, []byte("bad"), "sig"), order.ErrInvalidSignature)

	f.paymob.On("VerifyCallback", []byte("short"), "sig").
		Return(&order.PaymentResult{Reference: "7001", Success: true, AmountCents: 100}, nil)
	assert.ErrorIs(t, f.svc.PaymobCallback(ctx, []byte("short"), "sig"), ErrPaymentAmountMismatch)

	f.paymob.On("VerifyCallback", []byte("declined"), "sig").
		Return(&order.PaymentResult{Reference: "7001", Success: false, AmountCents: 15000}, nil)
	require.NoError(t, f.svc.PaymobCallback(ctx, []byte("declined"), "sig"))
	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentFailed, stored.PaymentStatus)
	assert.Equal(t, order.StatusPending, stored.Status)

	f.paymob.On("VerifyCallback", []byte("ok"), "sig").
		Return(&order.PaymentResult{Reference: "7001", TransactionID: "T1", Success: true, AmountCents: 15000}, nil)
	require.NoError(t, f.svc.PaymobCallback(ctx, []byte("ok"), "sig"))
	// replay is acknowledged
	require.NoError(t, f.svc.PaymobCallback(ctx, []byte("ok"), "sig"))

	stored, err = f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, order.StatusConfirmed, stored.Status)
}

func TestPaymobCallback_RetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "amber", "100", 5)
	o := f.place(t, nil, "paymob", PlaceOrderItem{ProductID: p.ID, Quantity: 1})
	guest := Actor{GuestEmail: "guest@example.com"}

	f.paymob.On("CreatePayment", mock.Anything, mock.Anything).
		Return(&order.PaymentSession{Method: order.PaymentPaymob, Reference: "8001"}, nil).Once()
	_, err := f.svc.StartPayment(ctx, o.ID, guest)
	require.NoError(t, err)

	f.paymob.On("VerifyCallback", []byte("declined"), "sig").
		Return(&order.PaymentResult{Reference: "8001", Success: false}, nil)
	require.NoError(t, f.svc.PaymobCallback(ctx, []byte("declined"), "sig"))

	f.paymob.On("CreatePayment", mock.Anything, mock.Anything).
		Return(&order.PaymentSession{Method: order.PaymentPaymob, Reference: "8002"}, nil).Once()
	session, err := f.svc.StartPayment(ctx, o.ID, guest)
	require.NoError(t, err)
	assert.Equal(t, "8002", session.Reference)

	// the order number alone does not locate an order
	f.paymob.On("VerifyCallback", []byte("unsigned"), "sig").
		Return(&order.PaymentResult{Reference: "9999", OrderNumber: o.Number, Success: true, AmountCents: 15000}, nil)
	assert.ErrorIs(t, f.svc.PaymobCallback(ctx, []byte("unsigned"), "sig"), shared.ErrNotFound)

	f.paymob.On("VerifyCallback", []byte("ok"), "sig").
		Return(&order.PaymentResult{Reference: "8002", TransactionID: "T2", Success: true, AmountCents: 15000}, nil)
	require.NoError(t, f.svc.PaymobCallback(ctx, []byte("ok"), "sig"))

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, "8002", stored.PaymentRef)
	f.paymob.AssertNumberOfCalls(t, "CreatePayment", 2)
}

func TestInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "patchouli", "100", 5)
	owner := uuid.New()
	o := f.place(t, &owner, "cod", PlaceOrderItem{ProductID: p.ID, Quantity: 1})

	inv, err := f.svc.Invoice(ctx, o.ID, Actor{IsAdmin: true}, "ar")
	require.NoError(t, err)
	assert.Equal(t, o.Number+".html", inv.FileName)
	assert.Equal(t, "ar", string(inv.Body))

	f.svc.invoices = nil
	_, err = f.svc.Invoice(ctx, o.ID, Actor{IsAdmin: true}, "en")
	assert.ErrorIs(t, err, ErrInvoiceUnavailable)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.product(t, "low", "100", 3)
	f.product(t, "plenty", "100", 50)

	paid := f.place(t, nil, "cod", PlaceOrderItem{ProductID: low.ID, Quantity: 1})
	f.place(t, nil, "cod", PlaceOrderItem{ProductID: low.ID, Quantity: 1})
	for _, st := range []string{"confirmed", "shipped", "delivered"} {
		_, err := f.svc.UpdateStatus(ctx, paid.ID, UpdateStatusRequest{Status: st}, "en")
		require.NoError(t, err)
	}

	msg, err := contact.NewMessage("Sara", "sara@example.com", "", "Hello", "Do you ship to Dubai?")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormContactMessageRepository(f.db.DB).Save(ctx, msg))

	stats, err := f.stats.Stats(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.OrdersByStatus["pending"])
	assert.Equal(t, int64(1), stats.OrdersByStatus["delivered"])
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(150)), stats.Revenue.String())
	assert.Equal(t, int64(1), stats.UnreadMessages)
	assert.Zero(t, stats.PendingSamples)
	require.Len(t, stats.LowStock, 1)
	assert.Equal(t, "low", stats.LowStock[0].Slug)
	assert.Equal(t, 1, stats.LowStock[0].Stock)
}
