package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Actor is the caller of an order operation. A zero UserID is an anonymous
// guest, identified by GuestEmail when the operation needs one.
type Actor struct {
	UserID     uuid.UUID
	Email      string
	IsAdmin    bool
	GuestEmail string
}

// IsAnonymous reports whether no user is signed in
func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil
}

// PlaceOrderItem is one requested line
type PlaceOrderItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gte=1,lte=20"`
}

// AddressInput is a shipping address in a request
type AddressInput struct {
	FullName   string `json:"full_name" binding:"required,max=150"`
	Phone      string `json:"phone" binding:"required,max=30"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	Region     string `json:"region" binding:"max=100"`
	Country    string `json:"country" binding:"required,len=2"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

// ToAddress converts the input to the value object
func (a AddressInput) ToAddress() valueobject.Address {
	return valueobject.Address{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		Country:    a.Country,
		PostalCode: a.PostalCode,
	}
}

// PlaceOrderRequest is the checkout payload
type PlaceOrderRequest struct {
	Items         []PlaceOrderItem `json:"items" binding:"required,min=1,max=50,dive"`
	Shipping      AddressInput     `json:"shipping" binding:"required"`
	PaymentMethod string           `json:"payment_method" binding:"required,oneof=cod paypal paymob"`
	GuestEmail    string           `json:"guest_email" binding:"omitempty,email,max=254"`
	Notes         string           `json:"notes" binding:"max=1000"`
}

// PlaceOrderCommand is a checkout with its caller and idempotency key
type PlaceOrderCommand struct {
	Request        PlaceOrderRequest
	UserID         *uuid.UUID
	IdempotencyKey string
}

// ListOrdersRequest carries the admin order listing query
type ListOrdersRequest struct {
	Page          int        `form:"page" binding:"omitempty,gte=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,gte=1,lte=100"`
	Search        string     `form:"search" binding:"max=100"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=unpaid paid failed refunded"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	OrderBy       string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at total status number"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// UpdateStatusRequest moves an order through its lifecycle
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed shipped delivered cancelled"`
	Reason string `json:"reason" binding:"max=500"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// StartPaymentRequest starts an online payment. Guests confirm the email
// used at checkout.
type StartPaymentRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

// CapturePayPalRequest captures an approved PayPal order
type CapturePayPalRequest struct {
	PayPalOrderID string `json:"paypal_order_id" binding:"required,max=64"`
	Email         string `json:"email" binding:"omitempty,email"`
}

// TrackOrderRequest lets a guest look up an order
type TrackOrderRequest struct {
	Number string `form:"number" binding:"required,max=40"`
	Email  string `form:"email" binding:"required,email"`
}

// OrderItemResponse is an order line in API responses
type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	UserID        *uuid.UUID          `json:"user_id,omitempty"`
	GuestEmail    string              `json:"guest_email,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	ItemCount     int                 `json:"item_count"`
	Shipping      valueobject.Address `json:"shipping"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	Status        string              `json:"status"`
	Currency      string              `json:"currency"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	ShippingFee   decimal.Decimal     `json:"shipping_fee"`
	Total         decimal.Decimal     `json:"total"`
	Notes         string              `json:"notes,omitempty"`
	CancelReason  string              `json:"cancel_reason,omitempty"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	ShippedAt     *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	Version       int                 `json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a domain order, resolving item names for lang
func ToOrderResponse(o *order.Order, lang string) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: it.ProductID,
			Slug:      it.Slug,
			Name:      it.Name.Get(lang),
			ImageURL:  it.ImageURL,
			UnitPrice: it.UnitPrice.Amount(),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().Amount(),
		})
	}
	return OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		UserID:        o.UserID,
		GuestEmail:    o.GuestEmail,
		Items:         items,
		ItemCount:     o.ItemCount(),
		Shipping:      o.Shipping,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		Currency:      string(o.Currency),
		Subtotal:      o.Subtotal.Amount(),
		ShippingFee:   o.ShippingFee.Amount(),
		Total:         o.Total.Amount(),
		Notes:         o.Notes,
		CancelReason:  o.CancelReason,
		PaidAt:        o.PaidAt,
		ShippedAt:     o.ShippedAt,
		DeliveredAt:   o.DeliveredAt,
		CancelledAt:   o.CancelledAt,
		Version:       o.GetVersion(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// PlaceOrderResult is the outcome of a checkout. Replayed is set when the
// idempotency key matched an earlier checkout.
type PlaceOrderResult struct {
	Order    OrderResponse `json:"order"`
	Replayed bool          `json:"replayed"`
}

// PaymentSessionResponse is a started online payment
type PaymentSessionResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference"`
	RedirectURL string    `json:"redirect_url"`
}

// StatsResponse holds the admin dashboard figures
type StatsResponse struct {
	OrdersByStatus map[string]int64  `json:"orders_by_status"`
	TotalOrders    int64             `json:"total_orders"`
	Revenue        decimal.Decimal   `json:"revenue"`
	Currency       string            `json:"currency"`
	LowStock       []LowStockProduct `json:"low_stock"`
	PendingSamples int64             `json:"pending_samples"`
	UnreadMessages int64             `json:"unread_messages"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// LowStockProduct is a product close to selling out
type LowStockProduct struct {
	ID    uuid.UUID `json:"id"`
	Slug  string    `json:"slug"`
	Name  string    `json:"name"`
	Stock int       `json:"stock"`
}
