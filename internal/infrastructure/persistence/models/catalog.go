package models

import (
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the Category aggregate.
type CategoryModel struct {
	AggregateModel
	Slug        string                    `gorm:"type:varchar(120);not null;uniqueIndex"`
	Name        valueobject.LocalizedText `gorm:"type:jsonb;not null"`
	Description valueobject.LocalizedText `gorm:"type:jsonb"`
	ImageURL    string                    `gorm:"type:varchar(500)"`
	SortOrder   int                       `gorm:"not null;default:0"`
	Active      bool                      `gorm:"not null"`
}

// TableName returns the table name for gorm
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Slug:              m.Slug,
		Name:              orEmptyText(m.Name),
		Description:       orEmptyText(m.Description),
		ImageURL:          m.ImageURL,
		SortOrder:         m.SortOrder,
		Active:            m.Active,
	}
}

// FromDomain populates the model from a domain Category.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Slug = c.Slug
	m.Name = c.Name
	m.Description = c.Description
	m.ImageURL = c.ImageURL
	m.SortOrder = c.SortOrder
	m.Active = c.Active
}

// CategoryModelFromDomain creates a persistence model from a domain Category.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	Slug           string                       `gorm:"type:varchar(120);not null;uniqueIndex"`
	Name           valueobject.LocalizedText    `gorm:"type:jsonb;not null"`
	NameEN         string                       `gorm:"column:name_en;type:varchar(300);index"`
	Description    valueobject.LocalizedText    `gorm:"type:jsonb"`
	Brand          string                       `gorm:"type:varchar(120);index"`
	CategoryID     *uuid.UUID                   `gorm:"type:uuid;index"`
	Gender         string                       `gorm:"type:varchar(10);not null;index"`
	Concentration  string                       `gorm:"type:varchar(20);not null"`
	SizeML         int                          `gorm:"column:size_ml;not null;default:0"`
	Price          decimal.Decimal              `gorm:"type:decimal(12,2);not null;index"`
	CompareAtPrice *decimal.Decimal             `gorm:"type:decimal(12,2)"`
	Currency       string                       `gorm:"type:varchar(3);not null"`
	Stock          int                          `gorm:"not null;default:0"`
	Notes          JSON[catalog.FragranceNotes] `gorm:"type:jsonb"`
	Images         JSON[[]catalog.ProductImage] `gorm:"type:jsonb"`
	Featured       bool                         `gorm:"not null;default:false;index"`
	Status         string                       `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for gorm
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	currency := valueobject.Currency(m.Currency)
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Slug:              m.Slug,
		Name:              orEmptyText(m.Name),
		Description:       orEmptyText(m.Description),
		Brand:             m.Brand,
		CategoryID:        m.CategoryID,
		Gender:            catalog.Gender(m.Gender),
		Concentration:     catalog.Concentration(m.Concentration),
		SizeML:            m.SizeML,
		Price:             moneyOf(m.Price, currency),
		Stock:             m.Stock,
		Notes:             m.Notes.Data,
		Images:            m.Images.Data,
		Featured:          m.Featured,
		Status:            catalog.ProductStatus(m.Status),
	}
	if m.CompareAtPrice != nil {
		compareAt := moneyOf(*m.CompareAtPrice, currency)
		p.CompareAtPrice = &compareAt
	}
	if p.Images == nil {
		p.Images = []catalog.ProductImage{}
	}
	return p
}

// FromDomain populates the model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Slug = p.Slug
	m.Name = p.Name
	m.NameEN = p.Name.Get(valueobject.LangEN)
	m.Description = p.Description
	m.Brand = p.Brand
	m.CategoryID = p.CategoryID
	m.Gender = string(p.Gender)
	m.Concentration = string(p.Concentration)
	m.SizeML = p.SizeML
	m.Price = p.Price.Amount()
	m.Currency = string(p.Price.Currency())
	m.CompareAtPrice = nil
	if p.CompareAtPrice != nil {
		amount := p.CompareAtPrice.Amount()
		m.CompareAtPrice = &amount
	}
	m.Stock = p.Stock
	m.Notes = NewJSON(p.Notes)
	m.Images = NewJSON(p.Images)
	m.Featured = p.Featured
	m.Status = string(p.Status)
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

func moneyOf(amount decimal.Decimal, currency valueobject.Currency) valueobject.Money {
	m, err := valueobject.NewMoney(amount, currency)
	if err != nil {
		return valueobject.Zero(currency)
	}
	return m
}

func orEmptyText(t valueobject.LocalizedText) valueobject.LocalizedText {
	if t == nil {
		return valueobject.LocalizedText{}
	}
	return t
}
