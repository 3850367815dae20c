package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "product not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))

	wrapped := fmt.Errorf("load product: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestWrapDomainError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDomainError("INVALID_STATE", "payment gateway unavailable", cause)

	assert.Equal(t, "payment gateway unavailable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: -3, PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.NotNil(t, f.Filters)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 10}.Normalize()
	assert.Equal(t, 20, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)

	empty := NewPaginated[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
