package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/segmentio/ksuid"
)

// Status represents the fulfilment status of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the transition s -> target is allowed
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentPaymob PaymentMethod = "paymob"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	return m == PaymentCOD || m == PaymentPayPal || m == PaymentPaymob
}

// IsOnline reports whether the method goes through a payment gateway
func (m PaymentMethod) IsOnline() bool {
	return m == PaymentPayPal || m == PaymentPaymob
}

// PaymentStatus is the settlement state of an order
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// MaxItems limits the number of lines in one order
const MaxItems = 50

// MaxQuantityPerItem limits the quantity of a single line
const MaxQuantityPerItem = 20

// Item is an order line. Name and price are snapshots taken at checkout.
type Item struct {
	ProductID uuid.UUID                 `json:"product_id"`
	Slug      string                    `json:"slug"`
	Name      valueobject.LocalizedText `json:"name"`
	ImageURL  string                    `json:"image_url,omitempty"`
	UnitPrice valueobject.Money         `json:"unit_price"`
	Quantity  int                       `json:"quantity"`
}

// Subtotal returns UnitPrice * Quantity
func (i Item) Subtotal() valueobject.Money {
	return i.UnitPrice.MultiplyByInt(int64(i.Quantity))
}

// Order is the aggregate root of a checkout
type Order struct {
	shared.BaseAggregateRoot
	Number        string
	UserID        *uuid.UUID
	GuestEmail    string
	Items         []Item
	Shipping      valueobject.Address
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	PaymentRef    string
	Status        Status
	Currency      valueobject.Currency
	Subtotal      valueobject.Money
	ShippingFee   valueobject.Money
	Total         valueobject.Money
	Notes         string
	CancelReason  string
	PaidAt        *time.Time
	ShippedAt     *time.Time
	DeliveredAt   *time.Time
	CancelledAt   *time.Time
}

// NewOrderNumber returns a sortable unique order number
func NewOrderNumber() string {
	return "ORD-" + ksuid.New().String()
}

// NewOrder creates a pending, unpaid order. Either userID or guestEmail must be set.
func NewOrder(userID *uuid.UUID, guestEmail string, shipping valueobject.Address, method PaymentMethod, currency valueobject.Currency) (*Order, error) {
	guestEmail = strings.ToLower(strings.TrimSpace(guestEmail))
	if userID == nil && guestEmail == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Guest orders require an email address")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            NewOrderNumber(),
		UserID:            userID,
		GuestEmail:        guestEmail,
		Items:             []Item{},
		Shipping:          shipping,
		PaymentMethod:     method,
		PaymentStatus:     PaymentUnpaid,
		Status:            StatusPending,
		Currency:          currency,
		Subtotal:          valueobject.Zero(currency),
		ShippingFee:       valueobject.Zero(currency),
		Total:             valueobject.Zero(currency),
	}
	return o, nil
}

// AddItem appends a line, merging with an existing line of the same product
func (o *Order) AddItem(item Item) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Items can only be added to pending orders")
	}
	if item.Quantity <= 0 || item.Quantity > MaxQuantityPerItem {
		return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity must be between 1 and %d", MaxQuantityPerItem))
	}
	if item.UnitPrice.Currency() != o.Currency {
		return shared.NewDomainError("INVALID_CURRENCY", "Item currency does not match order currency")
	}
	for i := range o.Items {
		if o.Items[i].ProductID == item.ProductID {
			if o.Items[i].Quantity+item.Quantity > MaxQuantityPerItem {
				return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity must be between 1 and %d", MaxQuantityPerItem))
			}
			o.Items[i].Quantity += item.Quantity
			o.recalculateTotals()
			return nil
		}
	}
	if len(o.Items) >= MaxItems {
		return shared.NewDomainError("TOO_MANY_ITEMS", fmt.Sprintf("An order can have at most %d lines", MaxItems))
	}
	o.Items = append(o.Items, item)
	o.recalculateTotals()
	return nil
}

// SetShippingFee sets the shipping fee and recomputes the total
func (o *Order) SetShippingFee(fee valueobject.Money) error {
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping fee cannot be negative")
	}
	if fee.Currency() != o.Currency {
		return shared.NewDomainError("INVALID_CURRENCY", "Shipping fee currency does not match order currency")
	}
	o.ShippingFee = fee
	o.recalculateTotals()
	return nil
}

// Place finalises checkout and records OrderPlaced
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "An order needs at least one item")
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// ItemCount returns the total number of units
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// IsOwnedBy reports whether the order belongs to userID
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// TransitionTo moves the order to target following the status lifecycle.
// Cancellation must go through Cancel so that a reason is recorded.
func (o *Order) TransitionTo(target Status) error {
	if target == StatusCancelled {
		return o.Cancel("")
	}
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	if target == StatusShipped && o.PaymentMethod.IsOnline() && o.PaymentStatus != PaymentPaid {
		return shared.NewDomainError("INVALID_STATE", "Online orders must be paid before shipping")
	}

	now := time.Now().UTC()
	old := o.Status
	o.Status = target
	switch target {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
		// cash is collected on delivery
		if o.PaymentMethod == PaymentCOD && o.PaymentStatus == PaymentUnpaid {
			o.PaymentStatus = PaymentPaid
			o.PaidAt = &now
		}
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
	return nil
}

// Cancel cancels a pending or confirmed order. Paid orders are marked refunded.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel an order that is %s", o.Status))
	}
	now := time.Now().UTC()
	old := o.Status
	o.Status = StatusCancelled
	o.CancelReason = strings.TrimSpace(reason)
	o.CancelledAt = &now
	if o.PaymentStatus == PaymentPaid {
		o.PaymentStatus = PaymentRefunded
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// MarkPaid records a successful gateway payment. A pending order is confirmed.
func (o *Order) MarkPaid(ref string) error {
	if o.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot pay a cancelled order")
	}
	if o.PaymentStatus == PaymentPaid {
		return shared.NewDomainError("ALREADY_PAID", "Order is already paid")
	}
	now := time.Now().UTC()
	o.PaymentStatus = PaymentPaid
	o.PaymentRef = ref
	o.PaidAt = &now
	old := o.Status
	if o.Status == StatusPending {
		o.Status = StatusConfirmed
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	if old != o.Status {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
	}
	return nil
}

// MarkPaymentFailed records a declined gateway payment. The order stays pending
// so the customer can retry.
func (o *Order) MarkPaymentFailed(ref string) error {
	if o.PaymentStatus == PaymentPaid {
		return shared.NewDomainError("ALREADY_PAID", "Order is already paid")
	}
	o.PaymentStatus = PaymentFailed
	o.PaymentRef = ref
	o.IncrementVersion()
	return nil
}

// AttachPaymentRef stores the gateway reference of a started payment
func (o *Order) AttachPaymentRef(ref string) {
	o.PaymentRef = ref
	o.IncrementVersion()
}

// CanStartPayment reports whether an online payment can be started
func (o *Order) CanStartPayment() error {
	if !o.PaymentMethod.IsOnline() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Cash on delivery orders are not paid online")
	}
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay an order that is %s", o.Status))
	}
	if o.PaymentStatus == PaymentPaid {
		return shared.NewDomainError("ALREADY_PAID", "Order is already paid")
	}
	return nil
}

func (o *Order) recalculateTotals() {
	subtotal := valueobject.Zero(o.Currency)
	for _, it := range o.Items {
		subtotal = subtotal.MustAdd(it.Subtotal())
	}
	o.Subtotal = subtotal
	o.Total = subtotal.MustAdd(o.ShippingFee)
}
