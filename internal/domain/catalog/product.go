package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
)

// ProductStatus represents whether a product is sold on the storefront
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// IsValid reports whether s is a known status
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// Gender is the marketing target of a fragrance
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// IsValid reports whether g is a known gender
func (g Gender) IsValid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

// Concentration is the perfume oil concentration
type Concentration string

const (
	ConcentrationParfum  Concentration = "parfum"
	ConcentrationEDP     Concentration = "edp"
	ConcentrationEDT     Concentration = "edt"
	ConcentrationCologne Concentration = "cologne"
	ConcentrationOil     Concentration = "oil"
)

// IsValid reports whether c is a known concentration
func (c Concentration) IsValid() bool {
	switch c {
	case ConcentrationParfum, ConcentrationEDP, ConcentrationEDT, ConcentrationCologne, ConcentrationOil:
		return true
	}
	return false
}

// FragranceNotes is the olfactory pyramid
type FragranceNotes struct {
	Top   []string `json:"top"`
	Heart []string `json:"heart"`
	Base  []string `json:"base"`
}

// ProductImage is an image stored in object storage
type ProductImage struct {
	URL       string `json:"url"`
	Key       string `json:"key,omitempty"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

// MaxProductImages limits the gallery size
const MaxProductImages = 10

// LowStockThreshold is the stock level at which a product is reported as low
const LowStockThreshold = 5

// Product is a perfume sold in the store. It is the aggregate root for
// pricing, stock and gallery changes.
type Product struct {
	shared.BaseAggregateRoot
	Slug           string
	Name           valueobject.LocalizedText
	Description    valueobject.LocalizedText
	Brand          string
	CategoryID     *uuid.UUID
	Gender         Gender
	Concentration  Concentration
	SizeML         int
	Price          valueobject.Money
	CompareAtPrice *valueobject.Money
	Stock          int
	Notes          FragranceNotes
	Images         []ProductImage
	Featured       bool
	Status         ProductStatus
}

// NewProduct creates an active product with zero stock
func NewProduct(slug string, name valueobject.LocalizedText, brand string, price valueobject.Money) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(name.Get(valueobject.LangEN))
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              slug,
		Name:              name,
		Description:       valueobject.LocalizedText{},
		Brand:             strings.TrimSpace(brand),
		Gender:            GenderUnisex,
		Concentration:     ConcentrationEDP,
		Price:             price,
		Status:            ProductStatusActive,
		Images:            []ProductImage{},
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// UpdateDetails replaces descriptive attributes
func (p *Product) UpdateDetails(name, description valueobject.LocalizedText, brand string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.Brand = strings.TrimSpace(brand)
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// ChangeSlug replaces the slug
func (p *Product) ChangeSlug(slug string) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	p.Slug = slug
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// Classify sets gender, concentration and bottle size
func (p *Product) Classify(gender Gender, concentration Concentration, sizeML int) error {
	if !gender.IsValid() {
		return shared.NewDomainError("INVALID_GENDER", fmt.Sprintf("Unknown gender %q", gender))
	}
	if !concentration.IsValid() {
		return shared.NewDomainError("INVALID_CONCENTRATION", fmt.Sprintf("Unknown concentration %q", concentration))
	}
	if sizeML < 0 || sizeML > 1000 {
		return shared.NewDomainError("INVALID_SIZE", "Bottle size must be between 0 and 1000 ml")
	}
	p.Gender = gender
	p.Concentration = concentration
	p.SizeML = sizeML
	p.IncrementVersion()
	return nil
}

// SetCategory moves the product to a category, or removes it with nil
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.IncrementVersion()
}

// SetNotes replaces the fragrance pyramid
func (p *Product) SetNotes(notes FragranceNotes) {
	p.Notes = FragranceNotes{
		Top:   cleanNotes(notes.Top),
		Heart: cleanNotes(notes.Heart),
		Base:  cleanNotes(notes.Base),
	}
	p.IncrementVersion()
}

// SetPricing sets the price and the optional strike-through price.
// compareAt must be greater than price when present.
func (p *Product) SetPricing(price valueobject.Money, compareAt *valueobject.Money) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if compareAt != nil {
		if compareAt.Currency() != price.Currency() {
			return shared.NewDomainError("INVALID_PRICE", "Compare-at price must use the same currency as price")
		}
		gt, _ := compareAt.GreaterThan(price)
		if !gt {
			return shared.NewDomainError("INVALID_PRICE", "Compare-at price must be greater than price")
		}
	}
	old := p.Price
	p.Price = price
	p.CompareAtPrice = compareAt
	p.IncrementVersion()
	if !old.Equals(price) {
		p.AddDomainEvent(NewProductPriceChangedEvent(p, old))
	}
	return nil
}

// SetFeatured toggles the home page highlight
func (p *Product) SetFeatured(featured bool) {
	p.Featured = featured
	p.IncrementVersion()
}

// SetImages replaces the gallery. When no image is flagged primary the first
// becomes primary; more than one primary image is rejected.
func (p *Product) SetImages(images []ProductImage) error {
	if len(images) > MaxProductImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", fmt.Sprintf("A product can have at most %d images", MaxProductImages))
	}
	out := make([]ProductImage, 0, len(images))
	primaries := 0
	for _, img := range images {
		img.URL = strings.TrimSpace(img.URL)
		if img.URL == "" {
			return shared.NewDomainError("INVALID_IMAGE", "Image URL cannot be empty")
		}
		if img.IsPrimary {
			primaries++
		}
		out = append(out, img)
	}
	if primaries > 1 {
		return shared.NewDomainError("INVALID_IMAGE", "Only one image can be primary")
	}
	if primaries == 0 && len(out) > 0 {
		out[0].IsPrimary = true
	}
	p.Images = out
	p.IncrementVersion()
	return nil
}

// PrimaryImage returns the primary image, if any
func (p *Product) PrimaryImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	return ProductImage{}, false
}

// ImageKeys returns the storage keys of every image that has one
func (p *Product) ImageKeys() []string {
	keys := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Key != "" {
			keys = append(keys, img.Key)
		}
	}
	return keys
}

// AdjustStock changes the stock by delta. Stock never goes below zero.
func (p *Product) AdjustStock(delta int, reason string) error {
	if delta == 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock adjustment cannot be zero")
	}
	if p.Stock+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for %s: have %d, need %d", p.Slug, p.Stock, -delta))
	}
	before := p.Stock
	p.Stock += delta
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStockAdjustedEvent(p, before, reason))
	return nil
}

// Activate puts the product on sale
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Product is already active")
	}
	p.Status = ProductStatusActive
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusInactive))
	return nil
}

// Deactivate hides the product from the storefront
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusActive))
	return nil
}

// MarkDeleted records the deletion event; the repository removes the row
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewProductDeletedEvent(p))
}

// IsActive reports whether the product is on sale
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsLowStock reports whether stock is at or below LowStockThreshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= LowStockThreshold
}

// CanFulfil reports whether quantity units can be sold
func (p *Product) CanFulfil(quantity int) bool {
	return p.IsActive() && quantity > 0 && p.Stock >= quantity
}

func validateProductName(name valueobject.LocalizedText) error {
	if name.IsEmpty() {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	for lang, v := range name {
		if len([]rune(v)) > 200 {
			return shared.NewDomainError("INVALID_NAME", fmt.Sprintf("Product name (%s) cannot exceed 200 characters", lang))
		}
	}
	return nil
}

func validatePrice(price valueobject.Money) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	return nil
}

func cleanNotes(notes []string) []string {
	out := make([]string, 0, len(notes))
	seen := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
