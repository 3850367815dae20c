// Package payment holds the online payment gateway adapters.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doRequest sends req and returns the body of a 2xx response. errorPath is the
// gjson path of the provider's error message.
func doRequest(client *http.Client, req *http.Request, provider, errorPath string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, shared.WrapDomainError(order.ErrGatewayUnavailable.Code,
			order.ErrGatewayUnavailable.Message, fmt.Errorf("%s: %w", provider, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", provider, err)
	}

	if resp.StatusCode >= 500 {
		return nil, shared.WrapDomainError(order.ErrGatewayUnavailable.Code,
			order.ErrGatewayUnavailable.Message, fmt.Errorf("%s: HTTP %d", provider, resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(body, errorPath).String()
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, shared.WrapDomainError(order.ErrGatewayRequestFailed.Code,
			order.ErrGatewayRequestFailed.Message, fmt.Errorf("%s: %s", provider, msg))
	}
	return body, nil
}

func newJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// toCents converts a decimal amount to the smallest currency unit
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func trimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
