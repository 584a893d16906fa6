package catalog

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

var (
	ErrProductNotFound   = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrInsufficientStock = shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrBrandNotFound     = shared.NewDomainError("BRAND_NOT_FOUND", "Brand not found")
	ErrCategoryNotFound  = shared.NewDomainError("CATEGORY_NOT_FOUND", "Category not found")
	ErrBrandInUse        = shared.NewDomainError("BRAND_IN_USE", "Brand still has products")
	ErrCategoryInUse     = shared.NewDomainError("CATEGORY_IN_USE", "Category still has products")
)

// NewInsufficientStockError returns ErrInsufficientStock tagged with the product.
func NewInsufficientStockError(productID uuid.UUID) *shared.DomainError {
	return ErrInsufficientStock.WithDetail("product_id", productID.String())
}
