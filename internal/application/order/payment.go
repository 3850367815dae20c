package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/application/event"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrPaymentAmountMismatch is returned when a provider reports an amount
// that differs from the order total
var ErrPaymentAmountMismatch = shared.NewDomainError("PAYMENT_AMOUNT_MISMATCH", "Paid amount does not match the order total")

// StartPayment starts an online payment at the provider of the order's
// payment method and returns where to send the customer
func (s *Service) StartPayment(ctx context.Context, id uuid.UUID, actor Actor) (*PaymentSessionResponse, error) {
	o, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := o.CanStartPayment(); err != nil {
		return nil, err
	}
	gw, ok := s.gateways[o.PaymentMethod]
	if !ok {
		return nil, order.ErrGatewayNotConfigured
	}

	email := o.GuestEmail
	if email == "" {
		email = actor.Email
	}
	session, err := gw.CreatePayment(ctx, order.NewPaymentRequest(o, email))
	if err != nil {
		s.logger.Error("Failed to start payment",
			zap.String("order_number", o.Number),
			zap.String("method", string(o.PaymentMethod)),
			zap.Error(err),
		)
		return nil, gatewayError(err)
	}

	o.AttachPaymentRef(session.Reference)
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("Payment started",
		zap.String("order_number", o.Number),
		zap.String("method", string(session.Method)),
		zap.String("reference", session.Reference),
	)
	return &PaymentSessionResponse{
		OrderID:     o.ID,
		Method:      string(session.Method),
		Reference:   session.Reference,
		RedirectURL: session.RedirectURL,
	}, nil
}

// CapturePayPal captures an approved PayPal order and marks the order paid.
// Capturing an order that is already paid returns it unchanged.
func (s *Service) CapturePayPal(ctx context.Context, id uuid.UUID, actor Actor, req CapturePayPalRequest, lang string) (*OrderResponse, error) {
	o, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != order.PaymentPayPal {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Order is not paid with PayPal")
	}
	if o.PaymentRef == "" || o.PaymentRef != req.PayPalOrderID {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "PayPal order does not belong to this order")
	}
	if o.PaymentStatus == order.PaymentPaid {
		r := ToOrderResponse(o, lang)
		return &r, nil
	}
	capturer, ok := s.gateways[order.PaymentPayPal].(order.PaymentCapturer)
	if !ok {
		return nil, order.ErrGatewayNotConfigured
	}

	result, err := capturer.Capture(ctx, req.PayPalOrderID)
	if err != nil {
		s.logger.Error("PayPal capture failed", zap.String("order_number", o.Number), zap.Error(err))
		return nil, gatewayError(err)
	}
	if err := s.applyResult(o, result); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.events, s.logger, o)

	r := ToOrderResponse(o, lang)
	return &r, nil
}

// PaymobCallback handles a transaction processed callback. The HMAC is
// verified before anything is read from the payload. Replayed callbacks for
// a paid order are acknowledged without changes.
func (s *Service) PaymobCallback(ctx context.Context, payload []byte, signature string) error {
	verifier, ok := s.gateways[order.PaymentPaymob].(order.CallbackVerifier)
	if !ok {
		return order.ErrGatewayNotConfigured
	}
	result, err := verifier.VerifyCallback(payload, signature)
	if err != nil {
		return err
	}

	o, err := s.findForResult(ctx, result)
	if err != nil {
		return err
	}
	if result.Pending || o.PaymentStatus == order.PaymentPaid {
		s.logger.Info("Paymob callback acknowledged without change",
			zap.String("order_number", o.Number),
			zap.Bool("pending", result.Pending),
			zap.String("payment_status", string(o.PaymentStatus)),
		)
		return nil
	}
	if result.Success && result.AmountCents != toCents(o) {
		s.logger.Error("Paymob amount mismatch",
			zap.String("order_number", o.Number),
			zap.Int64("expected_cents", toCents(o)),
			zap.Int64("paid_cents", result.AmountCents),
		)
		return ErrPaymentAmountMismatch
	}
	if err := s.applyResult(o, result); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return err
	}
	event.PublishPending(ctx, s.events, s.logger, o)
	return nil
}

// findForResult resolves a callback by the signed provider reference of the
// latest payment attempt
func (s *Service) findForResult(ctx context.Context, result *order.PaymentResult) (*order.Order, error) {
	if result.Reference == "" {
		return nil, shared.ErrNotFound
	}
	return s.orders.FindByPaymentRef(ctx, result.Reference)
}

// applyResult records a provider outcome on the order. A pending outcome
// leaves the order unchanged.
func (s *Service) applyResult(o *order.Order, result *order.PaymentResult) error {
	ref := result.Reference
	if ref == "" {
		ref = o.PaymentRef
	}
	switch {
	case result.Success:
		if err := o.MarkPaid(ref); err != nil {
			return err
		}
		s.logger.Info("Order paid",
			zap.String("order_number", o.Number),
			zap.String("method", string(o.PaymentMethod)),
			zap.String("transaction_id", result.TransactionID),
		)
	case result.Pending:
	default:
		if err := o.MarkPaymentFailed(ref); err != nil {
			return err
		}
		s.logger.Warn("Order payment failed",
			zap.String("order_number", o.Number),
			zap.String("method", string(o.PaymentMethod)),
			zap.String("transaction_id", result.TransactionID),
		)
	}
	return nil
}

func toCents(o *order.Order) int64 {
	return o.Total.Amount().Shift(2).Round(0).IntPart()
}

// gatewayError keeps the domain errors of an adapter and reports anything
// else as a rejected request
func gatewayError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapDomainError(order.ErrGatewayRequestFailed.Code, order.ErrGatewayRequestFailed.Message, err)
}
