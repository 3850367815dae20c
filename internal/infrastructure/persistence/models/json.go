package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores any value as a JSON document column
type JSON[T any] struct {
	Data T
}

// NewJSON wraps v for storage
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{Data: v}
}

// Value implements driver.Valuer
func (j JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (j *JSON[T]) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		var zero T
		j.Data = zero
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &j.Data)
}
