package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"asc; DROP TABLE products", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.in), "input %q", tt.in)
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "price", ValidateSortField("Price", ProductSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("password_hash", UserSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("1; --", CommonSortFields, "created_at"))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "total ASC", orderClause("total", "asc", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at DESC", orderClause("bogus", "", OrderSortFields, "created_at"))
}
