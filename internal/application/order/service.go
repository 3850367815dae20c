package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	catalogapp "github.com/perfume/backend/internal/application/catalog"
	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long a checkout idempotency key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

const (
	completeAttempts   = 3
	completeRetryDelay = 20 * time.Millisecond
)

// Errors returned by the order service
var (
	ErrRequestInProgress  = shared.NewDomainError("REQUEST_IN_PROGRESS", "A request with this idempotency key is still being processed")
	ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available")
	ErrInvoiceUnavailable = shared.NewDomainError("INVOICE_UNAVAILABLE", "Invoice rendering is not available")
)

// Service handles checkout and the order lifecycle
type Service struct {
	orders         order.Repository
	products       catalog.ProductRepository
	tx             shared.TransactionManager
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	catalogCache   CacheInvalidator
	gateways       map[order.PaymentMethod]order.PaymentGateway
	invoices       InvoiceRenderer
	shipping       order.ShippingPolicy
	currency       valueobject.Currency
	events         shared.EventPublisher
	logger         *zap.Logger
}

// ServiceConfig holds the dependencies of Service. Idempotency, CatalogCache,
// Invoices and Gateways are optional.
type ServiceConfig struct {
	Orders         order.Repository
	Products       catalog.ProductRepository
	Transactions   shared.TransactionManager
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	CatalogCache   CacheInvalidator
	Gateways       []order.PaymentGateway
	Invoices       InvoiceRenderer
	Shipping       order.ShippingPolicy
	Currency       valueobject.Currency
	Events         shared.EventPublisher
	Logger         *zap.Logger
}

// NewService creates a new order Service
func NewService(cfg ServiceConfig) *Service {
	gateways := make(map[order.PaymentMethod]order.PaymentGateway, len(cfg.Gateways))
	for _, gw := range cfg.Gateways {
		gateways[gw.Method()] = gw
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = valueobject.DefaultCurrency
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return &Service{
		orders:         cfg.Orders,
		products:       cfg.Products,
		tx:             cfg.Transactions,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: cfg.IdempotencyTTL,
		catalogCache:   cfg.CatalogCache,
		gateways:       gateways,
		invoices:       cfg.Invoices,
		shipping:       cfg.Shipping,
		currency:       cfg.Currency,
		events:         cfg.Events,
		logger:         logger,
	}
}

// Place checks out an order. Stock of every line is reserved in the same
// transaction that stores the order. With an idempotency key a retried
// checkout returns the order created by the first attempt.
func (s *Service) Place(ctx context.Context, cmd PlaceOrderCommand, lang string) (*PlaceOrderResult, error) {
	key := s.idempotencyKey(cmd)
	if key != "" {
		reserved, err := s.idempotency.Reserve(ctx, key, s.idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if !reserved {
			return s.replay(ctx, key, lang)
		}
	}

	o, err := s.place(ctx, cmd)
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return nil, err
	}
	if key != "" {
		s.completeKey(ctx, key, o.Number)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.Total.String()),
	)
	return &PlaceOrderResult{Order: ToOrderResponse(o, lang)}, nil
}

// completeKey stores the order number under a reserved key. The key is
// released when the store keeps failing.
func (s *Service) completeKey(ctx context.Context, key, number string) {
	err := retry.Do(
		func() error {
			return s.idempotency.Complete(ctx, key, number, s.idempotencyTTL)
		},
		retry.Context(ctx),
		retry.Attempts(completeAttempts),
		retry.Delay(completeRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return
	}
	s.logger.Error("Failed to complete idempotency key, releasing it",
		zap.String("key", key),
		zap.String("order_number", number),
		zap.Error(err),
	)
	if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
	}
}

func (s *Service) idempotencyKey(cmd PlaceOrderCommand) string {
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return ""
	}
	owner := strings.ToLower(strings.TrimSpace(cmd.Request.GuestEmail))
	if cmd.UserID != nil {
		owner = cmd.UserID.String()
	}
	return "checkout:" + owner + ":" + key
}

func (s *Service) replay(ctx context.Context, key, lang string) (*PlaceOrderResult, error) {
	number, err := s.idempotency.Result(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if number == "" {
		return nil, ErrRequestInProgress
	}
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Checkout replayed from idempotency key", zap.String("order_number", number))
	return &PlaceOrderResult{Order: ToOrderResponse(o, lang), Replayed: true}, nil
}

func (s *Service) place(ctx context.Context, cmd PlaceOrderCommand) (*order.Order, error) {
	req := cmd.Request
	shipping, err := valueobject.NewAddress(req.Shipping.ToAddress())
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_ADDRESS", err.Error(), err)
	}
	guestEmail := ""
	if cmd.UserID == nil {
		guestEmail = req.GuestEmail
	}
	o, err := order.NewOrder(cmd.UserID, guestEmail, shipping, order.PaymentMethod(req.PaymentMethod), s.currency)
	if err != nil {
		return nil, err
	}
	o.Notes = strings.TrimSpace(req.Notes)

	lines, ids := mergeLines(req.Items)
	var touched []catalog.Product
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		products, err := s.products.FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*catalog.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		for _, line := range lines {
			p, ok := byID[line.ProductID]
			if !ok || !p.IsActive() {
				return shared.WrapDomainError(ErrProductUnavailable.Code,
					fmt.Sprintf("Product %s is not available", line.ProductID), ErrProductUnavailable)
			}
			if err := p.AdjustStock(-line.Quantity, "order "+o.Number); err != nil {
				return err
			}
			image := ""
			if img, ok := p.PrimaryImage(); ok {
				image = img.URL
			}
			if err := o.AddItem(order.Item{
				ProductID: p.ID,
				Slug:      p.Slug,
				Name:      p.Name,
				ImageURL:  image,
				UnitPrice: p.Price,
				Quantity:  line.Quantity,
			}); err != nil {
				return err
			}
		}
		if err := o.SetShippingFee(s.shipping.FeeFor(o.Subtotal)); err != nil {
			return err
		}
		if err := o.Place(); err != nil {
			return err
		}
		for _, p := range byID {
			if err := s.products.Save(ctx, p); err != nil {
				return err
			}
		}
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		touched = products
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStockChange(ctx)
	aggregates := []shared.AggregateRoot{o}
	for i := range touched {
		aggregates = append(aggregates, &touched[i])
	}
	event.PublishPending(ctx, s.events, s.logger, aggregates...)
	return o, nil
}

// mergeLines folds repeated products into one line and returns the ids in
// a stable order so rows are locked consistently
func mergeLines(items []PlaceOrderItem) ([]PlaceOrderItem, []uuid.UUID) {
	index := make(map[uuid.UUID]int, len(items))
	lines := make([]PlaceOrderItem, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(lines)
		lines = append(lines, it)
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return lines, ids
}

// Get returns an order the actor may see
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor Actor, lang string) (*OrderResponse, error) {
	o, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	r := ToOrderResponse(o, lang)
	return &r, nil
}

// Track finds a guest order by number and checkout email
func (s *Service) Track(ctx context.Context, req TrackOrderRequest, lang string) (*OrderResponse, error) {
	o, err := s.orders.FindByNumber(ctx, strings.TrimSpace(req.Number))
	if err != nil {
		return nil, err
	}
	if o.GuestEmail == "" || o.GuestEmail != strings.ToLower(strings.TrimSpace(req.Email)) {
		return nil, shared.ErrNotFound
	}
	r := ToOrderResponse(o, lang)
	return &r, nil
}

// ListMine returns the orders of a customer, newest first
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, req ListOrdersRequest, lang string) (shared.Paginated[OrderResponse], error) {
	filter := s.buildFilter(req)
	filter.UserID = &userID
	return s.list(ctx, filter, lang)
}

// List returns orders for the admin
func (s *Service) List(ctx context.Context, req ListOrdersRequest, lang string) (shared.Paginated[OrderResponse], error) {
	return s.list(ctx, s.buildFilter(req), lang)
}

func (s *Service) buildFilter(req ListOrdersRequest) order.Filter {
	filter := order.Filter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			Search:   strings.TrimSpace(req.Search),
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		}.Normalize(),
		Status:        order.Status(req.Status),
		PaymentStatus: order.PaymentStatus(req.PaymentStatus),
		From:          req.From,
	}
	if req.To != nil {
		// the upper bound is inclusive of the whole day
		end := req.To.AddDate(0, 0, 1)
		filter.To = &end
	}
	return filter
}

func (s *Service) list(ctx context.Context, filter order.Filter, lang string) (shared.Paginated[OrderResponse], error) {
	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderResponse(&orders[i], lang))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateStatus moves an order to the target status. Cancelling restores stock.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, lang string) (*OrderResponse, error) {
	target := order.Status(req.Status)
	if target == order.StatusCancelled {
		return s.Cancel(ctx, id, Actor{IsAdmin: true}, CancelOrderRequest{Reason: req.Reason}, lang)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := o.Status
	if err := o.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.events, s.logger, o)
	s.logger.Info("Order status changed",
		zap.String("order_number", o.Number),
		zap.String("from", string(old)),
		zap.String("to", string(o.Status)),
	)
	r := ToOrderResponse(o, lang)
	return &r, nil
}

// Cancel cancels an order and puts its stock back. Customers may only cancel
// their own orders while they are pending.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor, req CancelOrderRequest, lang string) (*OrderResponse, error) {
	o, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && o.Status != order.StatusPending {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Only pending orders can be cancelled by the customer")
	}

	var restocked []catalog.Product
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := o.Cancel(req.Reason); err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		products, err := s.products.FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*catalog.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
		for _, it := range o.Items {
			// deleted products have nothing to restock
			p, ok := byID[it.ProductID]
			if !ok {
				continue
			}
			if err := p.AdjustStock(it.Quantity, "cancelled "+o.Number); err != nil {
				return err
			}
		}
		for _, p := range byID {
			if err := s.products.Save(ctx, p); err != nil {
				return err
			}
		}
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		restocked = products
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStockChange(ctx)
	aggregates := []shared.AggregateRoot{o}
	for i := range restocked {
		aggregates = append(aggregates, &restocked[i])
	}
	event.PublishPending(ctx, s.events, s.logger, aggregates...)
	s.logger.Info("Order cancelled",
		zap.String("order_number", o.Number),
		zap.Bool("by_admin", actor.IsAdmin),
		zap.String("reason", o.CancelReason),
	)
	r := ToOrderResponse(o, lang)
	return &r, nil
}

// Invoice renders the invoice of an order
func (s *Service) Invoice(ctx context.Context, id uuid.UUID, actor Actor, lang string) (*Invoice, error) {
	if s.invoices == nil {
		return nil, ErrInvoiceUnavailable
	}
	o, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.invoices.Render(ctx, o, lang)
}

// load fetches an order and checks the actor may access it. Guests prove
// access with the checkout email.
func (s *Service) load(ctx context.Context, id uuid.UUID, actor Actor) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(o, actor) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "You cannot access this order")
	}
	return o, nil
}

func canAccess(o *order.Order, actor Actor) bool {
	switch {
	case actor.IsAdmin:
		return true
	case !actor.IsAnonymous():
		return o.IsOwnedBy(actor.UserID)
	default:
		email := strings.ToLower(strings.TrimSpace(actor.GuestEmail))
		return o.UserID == nil && email != "" && email == o.GuestEmail
	}
}

func (s *Service) afterStockChange(ctx context.Context) {
	if s.catalogCache == nil {
		return
	}
	if err := s.catalogCache.InvalidateNamespace(ctx, catalogapp.CacheNamespace); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}
