// Package catalog implements catalog browsing and administration.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	brandRepo    catalog.BrandRepository
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	brandRepo catalog.BrandRepository,
	categoryRepo catalog.CategoryRepository,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		brandRepo:    brandRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// List returns in-stock products, newest first, optionally searched and
// filtered by brand or category
func (s *ProductService) List(ctx context.Context, req ListProductsRequest) ([]ProductResponse, int64, error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Search:   req.Search,
	}.Normalize(DefaultProductPageSize, 100)

	if req.BrandID != nil {
		filter.Filters["brand_id"] = *req.BrandID
	}
	if req.CategoryID != nil {
		filter.Filters["category_id"] = *req.CategoryID
	}

	products, total, err := s.productRepo.FindInStock(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// GetByID returns a single product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err := s.ensureGroups(ctx, req.BrandID, req.CategoryID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(req.Name, req.Price, req.Discount, req.Stock, req.BrandID, req.CategoryID)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if len(req.Colors) > 0 {
		product.SetColors(req.Colors)
	}
	if len(req.Images) > 0 {
		if err := product.SetImages(req.Images...); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("id", product.ID.String()),
		zap.String("name", product.Name),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		if req.Name != nil {
			name = *req.Name
		}
		description := product.Description
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.Discount != nil {
		price := product.Price
		if req.Price != nil {
			price = *req.Price
		}
		discount := product.Discount
		if req.Discount != nil {
			discount = *req.Discount
		}
		if err := product.SetPricing(price, discount); err != nil {
			return nil, err
		}
	}

	if req.Stock != nil {
		if err := product.SetStock(*req.Stock); err != nil {
			return nil, err
		}
	}
	if req.Colors != nil {
		product.SetColors(req.Colors)
	}
	if req.Images != nil {
		if err := product.SetImages(req.Images...); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product from the catalog. Carts still holding its snapshot
// fail at checkout with PRODUCT_NOT_FOUND.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("id", id.String()))
	return nil
}

func (s *ProductService) ensureGroups(ctx context.Context, brandID, categoryID uuid.UUID) error {
	if _, err := s.brandRepo.FindByID(ctx, brandID); err != nil {
		if errors.Is(err, catalog.ErrBrandNotFound) {
			return shared.NewDomainError("INVALID_BRAND", "Brand not found")
		}
		return err
	}
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}
