package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Lookup translates product ids into cart-ready snapshots and applies the
// settlement stock decrement.
type Lookup interface {
	// Get returns the snapshot of a product or ErrProductNotFound
	Get(ctx context.Context, id uuid.UUID) (*ProductSnapshot, error)

	// DecrementStock atomically subtracts qty and returns the new stock level.
	// Fails with ErrInsufficientStock when qty exceeds the current stock.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (int, error)
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Lookup

	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindInStock lists products with stock > 0. The filter's Search matches
	// name or description; Filters may carry brand_id and category_id.
	FindInStock(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete removes a product. Placed orders keep their line snapshots.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BrandRepository defines the interface for brand persistence
type BrandRepository interface {
	// FindAll returns all brands ordered by name
	FindAll(ctx context.Context) ([]Brand, error)

	// FindByID finds a brand by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)

	// ExistsByName checks if a brand name is taken
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Save creates or updates a brand
	Save(ctx context.Context, brand *Brand) error

	// Delete removes a brand; fails with ErrBrandInUse while products
	// reference it
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindAll returns all categories ordered by name
	FindAll(ctx context.Context) ([]Category, error)

	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// ExistsByName checks if a category name is taken
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// Delete removes a category; fails with ErrCategoryInUse while products
	// reference it
	Delete(ctx context.Context, id uuid.UUID) error
}
