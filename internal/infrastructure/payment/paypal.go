package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	paypalSandboxURL  = "https://api-m.sandbox.paypal.com"
	paypalTokenPath   = "/v1/oauth2/token"
	paypalOrdersPath  = "/v2/checkout/orders"
	paypalCapturePath = "/v2/checkout/orders/%s/capture"

	// refresh the access token this long before PayPal expires it
	tokenExpirySlack = time.Minute
)

// Errors for PayPal configuration
var (
	ErrPayPalMissingClientID = errors.New("paypal: missing client id")
	ErrPayPalMissingSecret   = errors.New("paypal: missing client secret")
	ErrPayPalMissingReturn   = errors.New("paypal: missing return url")
)

// PayPalAdapter creates and captures PayPal checkout orders
type PayPalAdapter struct {
	cfg        config.PayPalConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewPayPalAdapter creates a new PayPal adapter
func NewPayPalAdapter(cfg config.PayPalConfig, logger *zap.Logger) (*PayPalAdapter, error) {
	switch {
	case cfg.ClientID == "":
		return nil, ErrPayPalMissingClientID
	case cfg.ClientSecret == "":
		return nil, ErrPayPalMissingSecret
	case cfg.ReturnURL == "":
		return nil, ErrPayPalMissingReturn
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		base = paypalSandboxURL
	}
	return &PayPalAdapter{
		cfg:        cfg,
		baseURL:    trimBaseURL(base),
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Method returns the payment method served by this adapter
func (a *PayPalAdapter) Method() order.PaymentMethod {
	return order.PaymentPayPal
}

// CreatePayment creates a PayPal order and returns the approval link
func (a *PayPalAdapter) CreatePayment(ctx context.Context, req *order.PaymentRequest) (*order.PaymentSession, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	cancelURL := a.cfg.CancelURL
	if cancelURL == "" {
		cancelURL = a.cfg.ReturnURL
	}
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": req.OrderNumber,
			"custom_id":    req.OrderID.String(),
			"invoice_id":   req.OrderNumber,
			"amount": map[string]any{
				"currency_code": string(req.Amount.Currency()),
				"value":         req.Amount.StringFixed(2),
			},
		}},
		"application_context": map[string]any{
			"brand_name":          a.cfg.BrandName,
			"return_url":          withOrderNumber(a.cfg.ReturnURL, req.OrderNumber),
			"cancel_url":          withOrderNumber(cancelURL, req.OrderNumber),
			"user_action":         "PAY_NOW",
			"shipping_preference": "NO_SHIPPING",
		},
	}

	httpReq, err := newJSONRequest(ctx, http.MethodPost, a.baseURL+paypalOrdersPath, payload)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	// PayPal deduplicates retries carrying the same request id
	httpReq.Header.Set("PayPal-Request-Id", req.OrderNumber)

	body, err := doRequest(a.httpClient, httpReq, "paypal", "message")
	if err != nil {
		return nil, err
	}

	id := gjson.GetBytes(body, "id").String()
	approve := gjson.GetBytes(body, `links.#(rel=="approve").href`).String()
	if approve == "" {
		approve = gjson.GetBytes(body, `links.#(rel=="payer-action").href`).String()
	}
	if id == "" || approve == "" {
		return nil, fmt.Errorf("paypal: order response without id or approval link")
	}

	a.logger.Info("PayPal order created",
		zap.String("order_number", req.OrderNumber),
		zap.String("paypal_order_id", id),
	)
	return &order.PaymentSession{
		Method:      order.PaymentPayPal,
		Reference:   id,
		RedirectURL: approve,
	}, nil
}

// Capture captures an approved PayPal order
func (a *PayPalAdapter) Capture(ctx context.Context, reference string) (*order.PaymentResult, error) {
	if reference == "" {
		return nil, errors.New("paypal: order id is required")
	}
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := newJSONRequest(ctx, http.MethodPost,
		a.baseURL+fmt.Sprintf(paypalCapturePath, url.PathEscape(reference)), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("PayPal-Request-Id", "capture-"+reference)

	body, err := doRequest(a.httpClient, httpReq, "paypal", "message")
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	capture := parsed.Get("purchase_units.0.payments.captures.0")
	result := &order.PaymentResult{
		Reference:     parsed.Get("id").String(),
		TransactionID: capture.Get("id").String(),
		OrderNumber:   parsed.Get("purchase_units.0.reference_id").String(),
		Currency:      capture.Get("amount.currency_code").String(),
	}
	if v, err := decimal.NewFromString(capture.Get("amount.value").String()); err == nil {
		result.AmountCents = toCents(v)
	}
	switch capture.Get("status").String() {
	case "COMPLETED":
		result.Success = true
	case "PENDING":
		result.Pending = true
	}
	return result, nil
}

// token returns a cached OAuth2 access token, fetching a new one when expired
func (a *PayPalAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && a.now().Before(a.expiresAt) {
		return a.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+paypalTokenPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to create token request: %w", err)
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(a.httpClient, req, "paypal", "error_description")
	if err != nil {
		return "", err
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", errors.New("paypal: token response without access_token")
	}
	ttl := time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second
	a.accessToken = token
	a.expiresAt = a.now().Add(ttl - tokenExpirySlack)
	return token, nil
}

func withOrderNumber(raw, number string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("order", number)
	u.RawQuery = q.Encode()
	return u.String()
}

// Ensure PayPalAdapter implements the gateway ports
var (
	_ order.PaymentGateway  = (*PayPalAdapter)(nil)
	_ order.PaymentCapturer = (*PayPalAdapter)(nil)
)
