package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/segmentio/ksuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	paymobDefaultURL     = "https://accept.paymob.com"
	paymobAuthPath       = "/api/auth/tokens"
	paymobOrdersPath     = "/api/ecommerce/orders"
	paymobPaymentKeyPath = "/api/acceptance/payment_keys"
	paymobIframePath     = "/api/acceptance/iframes/%s?payment_token=%s"

	paymobKeyExpiration = 3600
)

// paymobHMACFields are the transaction fields Paymob signs, in signing order
var paymobHMACFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// Errors for Paymob configuration
var (
	ErrPaymobMissingAPIKey      = errors.New("paymob: missing api key")
	ErrPaymobMissingIntegration = errors.New("paymob: missing integration id")
	ErrPaymobMissingIframe      = errors.New("paymob: missing iframe id")
	ErrPaymobMissingHMACSecret  = errors.New("paymob: missing hmac secret")
)

// PaymobAdapter starts Paymob card payments and verifies their callbacks
type PaymobAdapter struct {
	cfg        config.PaymobConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPaymobAdapter creates a new Paymob adapter
func NewPaymobAdapter(cfg config.PaymobConfig, logger *zap.Logger) (*PaymobAdapter, error) {
	switch {
	case cfg.APIKey == "":
		return nil, ErrPaymobMissingAPIKey
	case cfg.IntegrationID == 0:
		return nil, ErrPaymobMissingIntegration
	case cfg.IframeID == "":
		return nil, ErrPaymobMissingIframe
	case cfg.HMACSecret == "":
		return nil, ErrPaymobMissingHMACSecret
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		base = paymobDefaultURL
	}
	return &PaymobAdapter{
		cfg:        cfg,
		baseURL:    trimBaseURL(base),
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     logger,
	}, nil
}

// Method returns the payment method served by this adapter
func (a *PaymobAdapter) Method() order.PaymentMethod {
	return order.PaymentPaymob
}

// CreatePayment authenticates, registers the order and requests a payment key.
// The session reference is the Paymob order id. Every attempt registers a new
// Paymob order, since Paymob rejects a repeated merchant order id.
func (a *PaymobAdapter) CreatePayment(ctx context.Context, req *order.PaymentRequest) (*order.PaymentSession, error) {
	currency := string(req.Amount.Currency())
	if currency == "" {
		currency = a.cfg.Currency
	}
	amountCents := toCents(req.Amount.Amount())

	authToken, err := a.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, map[string]any{
			"name":         it.Name.Get(valueobject.LangEN),
			"amount_cents": strconv.FormatInt(toCents(it.UnitPrice.Amount()), 10),
			"quantity":     strconv.Itoa(it.Quantity),
		})
	}
	merchantOrderID := attemptID(req.OrderNumber)
	body, err := a.post(ctx, paymobOrdersPath, map[string]any{
		"auth_token":        authToken,
		"delivery_needed":   false,
		"amount_cents":      strconv.FormatInt(amountCents, 10),
		"currency":          currency,
		"merchant_order_id": merchantOrderID,
		"items":             items,
	})
	if err != nil {
		return nil, err
	}
	paymobOrderID := gjson.GetBytes(body, "id").String()
	if paymobOrderID == "" {
		return nil, errors.New("paymob: order registration response without id")
	}

	body, err = a.post(ctx, paymobPaymentKeyPath, map[string]any{
		"auth_token":     authToken,
		"amount_cents":   strconv.FormatInt(amountCents, 10),
		"expiration":     paymobKeyExpiration,
		"order_id":       paymobOrderID,
		"billing_data":   billingData(req),
		"currency":       currency,
		"integration_id": a.cfg.IntegrationID,
	})
	if err != nil {
		return nil, err
	}
	paymentKey := gjson.GetBytes(body, "token").String()
	if paymentKey == "" {
		return nil, errors.New("paymob: payment key response without token")
	}

	a.logger.Info("Paymob order registered",
		zap.String("order_number", req.OrderNumber),
		zap.String("merchant_order_id", merchantOrderID),
		zap.String("paymob_order_id", paymobOrderID),
	)
	return &order.PaymentSession{
		Method:      order.PaymentPaymob,
		Reference:   paymobOrderID,
		RedirectURL: a.baseURL + fmt.Sprintf(paymobIframePath, url.PathEscape(a.cfg.IframeID), url.QueryEscape(paymentKey)),
	}, nil
}

// VerifyCallback checks the HMAC of a transaction processed callback and
// extracts its outcome. Only signed fields are read; the merchant order id
// is not signed.
func (a *PaymobAdapter) VerifyCallback(payload []byte, signature string) (*order.PaymentResult, error) {
	if !gjson.ValidBytes(payload) {
		return nil, order.ErrInvalidSignature
	}
	obj := gjson.GetBytes(payload, "obj")
	if !obj.Exists() {
		obj = gjson.ParseBytes(payload)
	}

	expected := PaymobSignature(obj, a.cfg.HMACSecret)
	if signature == "" || !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		a.logger.Warn("Paymob callback signature mismatch",
			zap.String("transaction_id", obj.Get("id").String()))
		return nil, order.ErrInvalidSignature
	}

	return &order.PaymentResult{
		Reference:     obj.Get("order.id").String(),
		TransactionID: obj.Get("id").String(),
		Success:       obj.Get("success").Bool() && !obj.Get("pending").Bool(),
		Pending:       obj.Get("pending").Bool(),
		AmountCents:   obj.Get("amount_cents").Int(),
		Currency:      obj.Get("currency").String(),
	}, nil
}

// attemptID suffixes the order number so each payment attempt has its own
// merchant order id
func attemptID(orderNumber string) string {
	return orderNumber + "-" + ksuid.New().String()
}

// PaymobSignature computes the lowercase hex HMAC-SHA512 Paymob sends with a
// transaction callback
func PaymobSignature(obj gjson.Result, secret string) string {
	var sb strings.Builder
	for _, field := range paymobHMACFields {
		sb.WriteString(obj.Get(field).String())
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *PaymobAdapter) authenticate(ctx context.Context) (string, error) {
	body, err := a.post(ctx, paymobAuthPath, map[string]any{"api_key": a.cfg.APIKey})
	if err != nil {
		return "", err
	}
	token := gjson.GetBytes(body, "token").String()
	if token == "" {
		return "", errors.New("paymob: auth response without token")
	}
	return token, nil
}

func (a *PaymobAdapter) post(ctx context.Context, path string, payload any) ([]byte, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, a.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	return doRequest(a.httpClient, req, "paymob", "detail")
}

// billingData maps the shipping address to Paymob billing data; Paymob
// rejects empty fields so unknown ones are sent as "NA".
func billingData(req *order.PaymentRequest) map[string]string {
	first, last := splitName(req.Shipping.FullName)
	return map[string]string{
		"first_name":      first,
		"last_name":       last,
		"email":           orNA(req.Email),
		"phone_number":    orNA(req.Shipping.Phone),
		"street":          orNA(req.Shipping.Line1),
		"building":        "NA",
		"floor":           "NA",
		"apartment":       orNA(req.Shipping.Line2),
		"city":            orNA(req.Shipping.City),
		"state":           orNA(req.Shipping.Region),
		"country":         orNA(req.Shipping.Country),
		"postal_code":     orNA(req.Shipping.PostalCode),
		"shipping_method": "NA",
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "NA", "NA"
	case 1:
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "NA"
	}
	return s
}

// Ensure PaymobAdapter implements the gateway ports
var (
	_ order.PaymentGateway   = (*PaymobAdapter)(nil)
	_ order.CallbackVerifier = (*PaymobAdapter)(nil)
)
