package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("", valueobject.LocalizedText{"en": "Oud Royal", "ar": "عود ملكي"}, "Maison", valueobject.MustNewMoney("150", valueobject.USD))
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewProduct(t *testing.T) {
	t.Run("derives slug from english name", func(t *testing.T) {
		p, err := NewProduct("", valueobject.LocalizedText{"en": "Oud Royal 100ml"}, "Maison", valueobject.MustNewMoney("150", valueobject.USD))
		require.NoError(t, err)
		assert.Equal(t, "oud-royal-100ml", p.Slug)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.Equal(t, 1, p.Version)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProductCreated, p.GetDomainEvents()[0].EventType())
	})

	t.Run("arabic only name needs explicit slug", func(t *testing.T) {
		_, err := NewProduct("", valueobject.LocalizedText{"ar": "مسك"}, "", valueobject.MustNewMoney("10", valueobject.USD))
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_SLUG", de.Code)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		_, err := NewProduct("musk", valueobject.LocalizedText{"en": "Musk"}, "", valueobject.Zero(valueobject.USD))
		assert.Error(t, err)
	})

	t.Run("rejects invalid slug", func(t *testing.T) {
		_, err := NewProduct("Bad Slug", valueobject.LocalizedText{"en": "Musk"}, "", valueobject.MustNewMoney("10", valueobject.USD))
		assert.Error(t, err)
	})
}

func TestProduct_SetPricing(t *testing.T) {
	p := newTestProduct(t)

	compare := valueobject.MustNewMoney("200", valueobject.USD)
	require.NoError(t, p.SetPricing(valueobject.MustNewMoney("120", valueobject.USD), &compare))
	assert.Equal(t, "120.00", p.Price.StringFixed(2))
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeProductPriceChanged, p.GetDomainEvents()[0].EventType())

	low := valueobject.MustNewMoney("100", valueobject.USD)
	assert.Error(t, p.SetPricing(valueobject.MustNewMoney("120", valueobject.USD), &low))

	other := valueobject.MustNewMoney("300", valueobject.EGP)
	assert.Error(t, p.SetPricing(valueobject.MustNewMoney("120", valueobject.USD), &other))
}

func TestProduct_AdjustStock(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.AdjustStock(10, "restock"))
	assert.Equal(t, 10, p.Stock)

	err := p.AdjustStock(-11, "order")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 10, p.Stock)

	require.NoError(t, p.AdjustStock(-10, "order"))
	assert.Equal(t, 0, p.Stock)
	assert.True(t, p.IsLowStock())

	assert.Error(t, p.AdjustStock(0, "noop"))
}

func TestProduct_SetImages(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.SetImages([]ProductImage{
		{URL: "https://cdn.test/a.jpg", Key: "products/a.jpg"},
		{URL: "https://cdn.test/b.jpg"},
	}))
	primary, ok := p.PrimaryImage()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/a.jpg", primary.URL)
	assert.Equal(t, []string{"products/a.jpg"}, p.ImageKeys())

	err := p.SetImages([]ProductImage{
		{URL: "https://cdn.test/a.jpg", IsPrimary: true},
		{URL: "https://cdn.test/b.jpg", IsPrimary: true},
	})
	assert.Error(t, err)

	assert.Error(t, p.SetImages([]ProductImage{{URL: " "}}))
}

func TestProduct_StatusTransitions(t *testing.T) {
	p := newTestProduct(t)

	assert.Error(t, p.Activate())
	require.NoError(t, p.Deactivate())
	assert.False(t, p.IsActive())
	assert.False(t, p.CanFulfil(1))
	assert.Error(t, p.Deactivate())
	require.NoError(t, p.Activate())
}

func TestProduct_Classify(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.Classify(GenderWomen, ConcentrationParfum, 50))
	assert.Equal(t, GenderWomen, p.Gender)
	assert.Error(t, p.Classify("kids", ConcentrationEDT, 50))
	assert.Error(t, p.Classify(GenderMen, "mist", 50))
	assert.Error(t, p.Classify(GenderMen, ConcentrationEDT, 5000))
}

func TestProduct_SetNotesDeduplicates(t *testing.T) {
	p := newTestProduct(t)
	p.SetNotes(FragranceNotes{Top: []string{"Bergamot", " bergamot", ""}, Base: []string{"Oud"}})
	assert.Equal(t, []string{"Bergamot"}, p.Notes.Top)
	assert.Equal(t, []string{}, p.Notes.Heart)
	assert.Equal(t, []string{"Oud"}, p.Notes.Base)
}

func TestProduct_MarkDeleted(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.SetImages([]ProductImage{{URL: "https://cdn.test/x.jpg", Key: "products/x.jpg"}}))
	p.ClearDomainEvents()
	p.MarkDeleted()

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	deleted, ok := events[0].(*ProductDeletedEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"products/x.jpg"}, deleted.ImageKeys)
}

func TestCategory(t *testing.T) {
	c, err := NewCategory("", valueobject.LocalizedText{"en": "Oriental Oud"})
	require.NoError(t, err)
	assert.Equal(t, "oriental-oud", c.Slug)
	assert.True(t, c.Active)

	assert.Error(t, c.Rename(valueobject.LocalizedText{}))
	assert.Error(t, c.ChangeSlug("UPPER"))

	c.SetActive(false)
	assert.False(t, c.Active)
	assert.Equal(t, 2, c.Version)

	id := uuid.New()
	p := newTestProduct(t)
	p.SetCategory(&id)
	assert.Equal(t, &id, p.CategoryID)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "black-orchid-edp", Slugify("  Black Orchid — EDP! "))
	assert.Equal(t, "", Slugify("عود"))
	assert.NoError(t, ValidateSlug("oud-royal-2"))
	assert.Error(t, ValidateSlug("oud--royal"))
}
