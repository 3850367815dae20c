package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	EGP Currency = "EGP"
	AED Currency = "AED"
	SAR Currency = "SAR"
)

// DefaultCurrency is the store currency when none is configured
const DefaultCurrency = USD

// ParseCurrency validates a three letter currency code
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return "", fmt.Errorf("invalid currency code %q", s)
	}
	return Currency(s), nil
}

// Money is an immutable monetary amount. All operations return new values.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money with the given amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustNewMoney is NewMoney for constants and tests
func MustNewMoney(amount string, currency Currency) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	m, err := NewMoney(d, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns zero in the given currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency       { return m.currency }
func (m Money) IsZero() bool             { return m.amount.IsZero() }
func (m Money) IsPositive() bool         { return m.amount.IsPositive() }
func (m Money) IsNegative() bool         { return m.amount.IsNegative() }

// Add returns the sum. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MustAdd adds two values and panics on a currency mismatch
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// MultiplyByInt multiplies by an integer quantity
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor)), currency: m.currency}
}

// Round rounds to the given number of decimal places
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

// Equals reports whether amount and currency are equal
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan compares two amounts of the same currency
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// GreaterThanOrEqual compares two amounts of the same currency
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// String renders "12.50 USD"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// StringFixed returns the amount with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// MarshalJSON renders {"amount":"12.50","currency":"USD"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(2),
		Currency: m.currency,
	})
}

// UnmarshalJSON parses the MarshalJSON shape. It accepts a JSON number for amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   json.Number `json:"amount"`
		Currency Currency    `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount.String())
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}
