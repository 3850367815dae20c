package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	Number        string              `gorm:"type:varchar(40);not null;uniqueIndex"`
	UserID        *uuid.UUID          `gorm:"type:uuid;index"`
	GuestEmail    string              `gorm:"type:varchar(254);index"`
	Shipping      valueobject.Address `gorm:"type:jsonb;not null"`
	PaymentMethod string              `gorm:"type:varchar(20);not null"`
	PaymentStatus string              `gorm:"type:varchar(20);not null;index"`
	PaymentRef    string              `gorm:"type:varchar(120);index"`
	Status        string              `gorm:"type:varchar(20);not null;index"`
	Currency      string              `gorm:"type:varchar(3);not null"`
	Subtotal      decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	ShippingFee   decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Notes         string              `gorm:"type:text"`
	CancelReason  string              `gorm:"type:varchar(500)"`
	PaidAt        *time.Time
	ShippedAt     *time.Time
	DeliveredAt   *time.Time
	CancelledAt   *time.Time
	Items         []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for gorm
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line.
type OrderItemModel struct {
	ID        uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Position  int                       `gorm:"not null;default:0"`
	ProductID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Slug      string                    `gorm:"type:varchar(120)"`
	Name      valueobject.LocalizedText `gorm:"type:jsonb;not null"`
	ImageURL  string                    `gorm:"type:varchar(500)"`
	UnitPrice decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	Quantity  int                       `gorm:"not null"`
	Subtotal  decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for gorm
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *order.Order {
	currency := valueobject.Currency(m.Currency)
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		UserID:            m.UserID,
		GuestEmail:        m.GuestEmail,
		Items:             make([]order.Item, 0, len(m.Items)),
		Shipping:          m.Shipping,
		PaymentMethod:     order.PaymentMethod(m.PaymentMethod),
		PaymentStatus:     order.PaymentStatus(m.PaymentStatus),
		PaymentRef:        m.PaymentRef,
		Status:            order.Status(m.Status),
		Currency:          currency,
		Subtotal:          moneyOf(m.Subtotal, currency),
		ShippingFee:       moneyOf(m.ShippingFee, currency),
		Total:             moneyOf(m.Total, currency),
		Notes:             m.Notes,
		CancelReason:      m.CancelReason,
		PaidAt:            m.PaidAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, order.Item{
			ProductID: it.ProductID,
			Slug:      it.Slug,
			Name:      orEmptyText(it.Name),
			ImageURL:  it.ImageURL,
			UnitPrice: moneyOf(it.UnitPrice, currency),
			Quantity:  it.Quantity,
		})
	}
	return o
}

// FromDomain populates the model from a domain Order. Items get fresh ids;
// the repository replaces the lines of an order as a whole.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Number = o.Number
	m.UserID = o.UserID
	m.GuestEmail = o.GuestEmail
	m.Shipping = o.Shipping
	m.PaymentMethod = string(o.PaymentMethod)
	m.PaymentStatus = string(o.PaymentStatus)
	m.PaymentRef = o.PaymentRef
	m.Status = string(o.Status)
	m.Currency = string(o.Currency)
	m.Subtotal = o.Subtotal.Amount()
	m.ShippingFee = o.ShippingFee.Amount()
	m.Total = o.Total.Amount()
	m.Notes = o.Notes
	m.CancelReason = o.CancelReason
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for i, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:        uuid.New(),
			OrderID:   o.ID,
			Position:  i,
			ProductID: it.ProductID,
			Slug:      it.Slug,
			Name:      it.Name,
			ImageURL:  it.ImageURL,
			UnitPrice: it.UnitPrice.Amount(),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().Amount(),
		})
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
