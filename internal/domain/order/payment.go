package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// Payment gateway errors
var (
	ErrGatewayUnavailable   = shared.NewDomainError("PAYMENT_GATEWAY_UNAVAILABLE", "Payment provider is unavailable")
	ErrGatewayRequestFailed = shared.NewDomainError("PAYMENT_GATEWAY_ERROR", "Payment provider rejected the request")
	ErrInvalidSignature     = shared.NewDomainError("INVALID_SIGNATURE", "Payment callback signature is invalid")
	ErrGatewayNotConfigured = shared.NewDomainError("PAYMENT_METHOD_UNAVAILABLE", "Payment method is not available")
)

// PaymentRequest describes an order to be paid online
type PaymentRequest struct {
	OrderID     uuid.UUID
	OrderNumber string
	Amount      valueobject.Money
	Email       string
	Shipping    valueobject.Address
	Items       []Item
}

// NewPaymentRequest builds the gateway request for an order
func NewPaymentRequest(o *Order, email string) *PaymentRequest {
	return &PaymentRequest{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Amount:      o.Total,
		Email:       email,
		Shipping:    o.Shipping,
		Items:       o.Items,
	}
}

// PaymentSession is a started payment the customer must complete at the provider
type PaymentSession struct {
	Method      PaymentMethod `json:"method"`
	Reference   string        `json:"reference"`
	RedirectURL string        `json:"redirect_url"`
}

// PaymentResult is the outcome reported by a provider
type PaymentResult struct {
	Reference     string
	TransactionID string
	OrderNumber   string
	Success       bool
	Pending       bool
	AmountCents   int64
	Currency      string
}

// PaymentGateway starts online payments for one payment method
type PaymentGateway interface {
	Method() PaymentMethod
	CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentSession, error)
}

// PaymentCapturer captures an approved payment (PayPal)
type PaymentCapturer interface {
	Capture(ctx context.Context, reference string) (*PaymentResult, error)
}

// CallbackVerifier authenticates a server to server payment notification (Paymob)
type CallbackVerifier interface {
	VerifyCallback(payload []byte, signature string) (*PaymentResult, error)
}
