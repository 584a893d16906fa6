package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	Name        string          `gorm:"type:varchar(80);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Discount    int             `gorm:"not null;default:0"`
	Stock       int             `gorm:"not null;default:0;index"`
	Colors      string          `gorm:"type:varchar(255)"`
	BrandID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Image1      string          `gorm:"type:varchar(150)"`
	Image2      string          `gorm:"type:varchar(150)"`
	Image3      string          `gorm:"type:varchar(150)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		Discount:          m.Discount,
		Stock:             m.Stock,
		Colors:            m.Colors,
		BrandID:           m.BrandID,
		CategoryID:        m.CategoryID,
		Image1:            m.Image1,
		Image2:            m.Image2,
		Image3:            m.Image3,
	}
}

// ToSnapshot builds the cart-facing snapshot without a full domain round trip
func (m *ProductModel) ToSnapshot() *catalog.ProductSnapshot {
	return m.ToDomain().Snapshot()
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Discount = p.Discount
	m.Stock = p.Stock
	m.Colors = p.Colors
	m.BrandID = p.BrandID
	m.CategoryID = p.CategoryID
	m.Image1 = p.Image1
	m.Image2 = p.Image2
	m.Image3 = p.Image3
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// BrandModel is the persistence model for Brand.
type BrandModel struct {
	BaseModel
	Name string `gorm:"type:varchar(30);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the persistence model to a domain Brand.
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// BrandModelFromDomain creates a new persistence model from a domain Brand.
func BrandModelFromDomain(b *catalog.Brand) *BrandModel {
	m := &BrandModel{Name: b.Name}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// CategoryModel is the persistence model for Category.
type CategoryModel struct {
	BaseModel
	Name string `gorm:"type:varchar(30);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
