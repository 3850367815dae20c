package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ImageInput is one gallery image in a product write
type ImageInput struct {
	URL       string `json:"url" binding:"required,url,max=700"`
	Key       string `json:"key" binding:"max=300"`
	Alt       string `json:"alt" binding:"max=200"`
	IsPrimary bool   `json:"is_primary"`
}

// NotesInput is the fragrance pyramid in a product write
type NotesInput struct {
	Top   []string `json:"top" binding:"max=20,dive,max=60"`
	Heart []string `json:"heart" binding:"max=20,dive,max=60"`
	Base  []string `json:"base" binding:"max=20,dive,max=60"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Slug           string            `json:"slug" binding:"omitempty,slug"`
	Name           map[string]string `json:"name" binding:"required,min=1,dive,keys,lang,endkeys,max=300"`
	Description    map[string]string `json:"description" binding:"omitempty,dive,keys,lang,endkeys,max=5000"`
	Brand          string            `json:"brand" binding:"max=120"`
	CategoryID     *uuid.UUID        `json:"category_id"`
	Gender         string            `json:"gender" binding:"omitempty,oneof=men women unisex"`
	Concentration  string            `json:"concentration" binding:"omitempty,oneof=parfum edp edt cologne oil"`
	SizeML         int               `json:"size_ml" binding:"gte=0,lte=1000"`
	Price          decimal.Decimal   `json:"price"`
	CompareAtPrice *decimal.Decimal  `json:"compare_at_price"`
	Stock          int               `json:"stock" binding:"gte=0"`
	Notes          *NotesInput       `json:"notes"`
	Images         []ImageInput      `json:"images" binding:"max=10,dive"`
	Featured       bool              `json:"featured"`
	Status         string            `json:"status" binding:"omitempty,oneof=active inactive"`
}

// UpdateProductRequest is a partial update. Nil fields are left unchanged.
// Version, when set, must match the stored version.
type UpdateProductRequest struct {
	Slug           *string            `json:"slug" binding:"omitempty,slug"`
	Name           *map[string]string `json:"name" binding:"omitempty,min=1,dive,keys,lang,endkeys,max=300"`
	Description    *map[string]string `json:"description" binding:"omitempty,dive,keys,lang,endkeys,max=5000"`
	Brand          *string            `json:"brand" binding:"omitempty,max=120"`
	CategoryID     *uuid.UUID         `json:"category_id"`
	ClearCategory  bool               `json:"clear_category"`
	Gender         *string            `json:"gender" binding:"omitempty,oneof=men women unisex"`
	Concentration  *string            `json:"concentration" binding:"omitempty,oneof=parfum edp edt cologne oil"`
	SizeML         *int               `json:"size_ml" binding:"omitempty,gte=0,lte=1000"`
	Price          *decimal.Decimal   `json:"price"`
	CompareAtPrice *decimal.Decimal   `json:"compare_at_price"`
	ClearCompareAt bool               `json:"clear_compare_at_price"`
	Notes          *NotesInput        `json:"notes"`
	Images         *[]ImageInput      `json:"images" binding:"omitempty,max=10,dive"`
	Featured       *bool              `json:"featured"`
	Version        *int               `json:"version" binding:"omitempty,gte=1"`
}

// AdjustStockRequest changes stock by a signed delta
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required,ne=0"`
	Reason string `json:"reason" binding:"required,max=200"`
}

// ListProductsRequest carries the listing query
type ListProductsRequest struct {
	Page       int        `form:"page" binding:"omitempty,gte=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,gte=1,lte=100"`
	Search     string     `form:"search" binding:"max=100"`
	CategoryID *uuid.UUID `form:"category_id"`
	Category   string     `form:"category" binding:"omitempty,slug"`
	Gender     string     `form:"gender" binding:"omitempty,oneof=men women unisex"`
	Brand      string     `form:"brand" binding:"max=120"`
	Featured   *bool      `form:"featured"`
	Status     string     `form:"status" binding:"omitempty,oneof=active inactive"`
	MinPrice   *string    `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice   *string    `form:"max_price" binding:"omitempty,numeric"`
	InStock    bool       `form:"in_stock"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=created_at price name stock"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Translations holds the raw multilingual values of a response
type Translations struct {
	Name        valueobject.LocalizedText `json:"name"`
	Description valueobject.LocalizedText `json:"description,omitempty"`
}

// ProductResponse represents a product in API responses. Name and
// Description are resolved for the requested language.
type ProductResponse struct {
	ID             uuid.UUID              `json:"id"`
	Slug           string                 `json:"slug"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Brand          string                 `json:"brand"`
	CategoryID     *uuid.UUID             `json:"category_id,omitempty"`
	Gender         string                 `json:"gender"`
	Concentration  string                 `json:"concentration"`
	SizeML         int                    `json:"size_ml"`
	Price          decimal.Decimal        `json:"price"`
	CompareAtPrice *decimal.Decimal       `json:"compare_at_price,omitempty"`
	Currency       string                 `json:"currency"`
	Stock          int                    `json:"stock"`
	InStock        bool                   `json:"in_stock"`
	Notes          catalog.FragranceNotes `json:"notes"`
	Images         []catalog.ProductImage `json:"images"`
	Featured       bool                   `json:"featured"`
	Status         string                 `json:"status"`
	Translations   Translations           `json:"translations"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ToProductResponse converts a domain product for lang
func ToProductResponse(p *catalog.Product, lang string) ProductResponse {
	var compareAt *decimal.Decimal
	if p.CompareAtPrice != nil {
		v := p.CompareAtPrice.Amount()
		compareAt = &v
	}
	images := p.Images
	if images == nil {
		images = []catalog.ProductImage{}
	}
	return ProductResponse{
		ID:             p.ID,
		Slug:           p.Slug,
		Name:           p.Name.Get(lang),
		Description:    p.Description.Get(lang),
		Brand:          p.Brand,
		CategoryID:     p.CategoryID,
		Gender:         string(p.Gender),
		Concentration:  string(p.Concentration),
		SizeML:         p.SizeML,
		Price:          p.Price.Amount(),
		CompareAtPrice: compareAt,
		Currency:       string(p.Price.Currency()),
		Stock:          p.Stock,
		InStock:        p.Stock > 0,
		Notes:          p.Notes,
		Images:         images,
		Featured:       p.Featured,
		Status:         string(p.Status),
		Translations:   Translations{Name: p.Name, Description: p.Description},
		Version:        p.GetVersion(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// CategoryRequest creates or fully replaces a category
type CategoryRequest struct {
	Slug        string            `json:"slug" binding:"omitempty,slug"`
	Name        map[string]string `json:"name" binding:"required,min=1,dive,keys,lang,endkeys,max=200"`
	Description map[string]string `json:"description" binding:"omitempty,dive,keys,lang,endkeys,max=2000"`
	ImageURL    string            `json:"image_url" binding:"omitempty,url,max=500"`
	SortOrder   int               `json:"sort_order"`
	Active      *bool             `json:"active"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID           uuid.UUID    `json:"id"`
	Slug         string       `json:"slug"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	ImageURL     string       `json:"image_url,omitempty"`
	SortOrder    int          `json:"sort_order"`
	Active       bool         `json:"active"`
	Translations Translations `json:"translations"`
	Version      int          `json:"version"`
}

// ToCategoryResponse converts a domain category for lang
func ToCategoryResponse(c *catalog.Category, lang string) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Slug:         c.Slug,
		Name:         c.Name.Get(lang),
		Description:  c.Description.Get(lang),
		ImageURL:     c.ImageURL,
		SortOrder:    c.SortOrder,
		Active:       c.Active,
		Translations: Translations{Name: c.Name, Description: c.Description},
		Version:      c.GetVersion(),
	}
}
