package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is a shipping or sample delivery address
type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
}

// NewAddress trims every field and validates the required ones
func NewAddress(a Address) (Address, error) {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.Region = strings.TrimSpace(a.Region)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.PostalCode = strings.TrimSpace(a.PostalCode)

	switch {
	case a.FullName == "":
		return Address{}, errors.New("full name is required")
	case a.Phone == "":
		return Address{}, errors.New("phone is required")
	case a.Line1 == "":
		return Address{}, errors.New("address line is required")
	case a.City == "":
		return Address{}, errors.New("city is required")
	case len(a.Country) != 2:
		return Address{}, errors.New("country must be an ISO 3166 alpha-2 code")
	}
	return a, nil
}

// String renders a single line address
func (a Address) String() string {
	parts := []string{a.Line1}
	for _, p := range []string{a.Line2, a.City, a.Region, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsEmpty reports whether the address has no street line
func (a Address) IsEmpty() bool {
	return a.Line1 == ""
}

// Value implements driver.Valuer as a JSON document
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = Address{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}
