package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/pricing"
)

// DefaultProductPageSize is the catalog page size for shoppers
const DefaultProductPageSize = 8

// ==================== Product DTOs ====================

// ListProductsRequest represents the catalog browse/search query
type ListProductsRequest struct {
	Page       int
	PageSize   int
	Search     string
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=80"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Discount    int             `json:"discount" binding:"min=0,max=100"`
	Stock       int             `json:"stock" binding:"min=0"`
	Colors      []string        `json:"colors" binding:"max=20"`
	BrandID     uuid.UUID       `json:"brand_id" binding:"required"`
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Images      []string        `json:"images" binding:"max=3"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=80"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *int             `json:"discount" binding:"omitempty,min=0,max=100"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	Colors      []string         `json:"colors" binding:"omitempty,max=20"`
	Images      []string         `json:"images" binding:"omitempty,max=3"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       pricing.Amount `json:"price"`
	Discount    int            `json:"discount"`
	SalePrice   pricing.Amount `json:"sale_price"`
	Stock       int            `json:"stock"`
	InStock     bool           `json:"in_stock"`
	Colors      []string       `json:"colors"`
	BrandID     uuid.UUID      `json:"brand_id"`
	CategoryID  uuid.UUID      `json:"category_id"`
	Images      []string       `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := make([]string, 0, 3)
	for _, ref := range []string{p.Image1, p.Image2, p.Image3} {
		if ref != "" {
			images = append(images, ref)
		}
	}
	salePrice := pricing.Line{UnitPrice: p.Price, DiscountPercent: p.Discount, Quantity: 1}.Net()

	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       pricing.NewAmount(p.Price),
		Discount:    p.Discount,
		SalePrice:   pricing.NewAmount(salePrice),
		Stock:       p.Stock,
		InStock:     p.InStock(),
		Colors:      p.ColorList(),
		BrandID:     p.BrandID,
		CategoryID:  p.CategoryID,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// ==================== Brand / Category DTOs ====================

// CreateGroupRequest creates a brand or category
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=30"`
}

// RenameGroupRequest renames a brand or category
type RenameGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=30"`
}

// GroupResponse represents a brand or category
type GroupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
