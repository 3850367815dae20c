package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter narrows order listings
type Filter struct {
	shared.Filter
	UserID        *uuid.UUID
	Status        Status
	PaymentStatus PaymentStatus
	From          *time.Time
	To            *time.Time
}

// Repository defines the interface for order persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByPaymentRef(ctx context.Context, ref string) (*Order, error)
	FindAll(ctx context.Context, filter Filter) ([]Order, int64, error)
	// CountByStatus returns the number of orders per status
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	// SumPaidTotals returns the revenue of paid, non-refunded orders
	SumPaidTotals(ctx context.Context) (decimal.Decimal, error)
	Save(ctx context.Context, o *Order) error
}
