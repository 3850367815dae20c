package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	valid := Address{
		FullName: " Layla Hassan ",
		Phone:    "+201001234567",
		Line1:    "12 Tahrir St",
		City:     "Cairo",
		Country:  "eg",
	}

	t.Run("trims and upper-cases country", func(t *testing.T) {
		a, err := NewAddress(valid)
		require.NoError(t, err)
		assert.Equal(t, "Layla Hassan", a.FullName)
		assert.Equal(t, "EG", a.Country)
		assert.Equal(t, "12 Tahrir St, Cairo, EG", a.String())
	})

	t.Run("requires city", func(t *testing.T) {
		a := valid
		a.City = ""
		_, err := NewAddress(a)
		assert.EqualError(t, err, "city is required")
	})

	t.Run("requires two letter country", func(t *testing.T) {
		a := valid
		a.Country = "Egypt"
		_, err := NewAddress(a)
		assert.Error(t, err)
	})

	t.Run("round trips through the database value", func(t *testing.T) {
		a, err := NewAddress(valid)
		require.NoError(t, err)
		v, err := a.Value()
		require.NoError(t, err)
		var scanned Address
		require.NoError(t, scanned.Scan(v))
		assert.Equal(t, a, scanned)
	})
}
