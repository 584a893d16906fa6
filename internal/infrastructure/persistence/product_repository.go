package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	m, err := r.findModel(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Get returns the cart snapshot of a product
func (r *GormProductRepository) Get(ctx context.Context, id uuid.UUID) (*catalog.ProductSnapshot, error) {
	m, err := r.findModel(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.ToSnapshot(), nil
}

func (r *GormProductRepository) findModel(ctx context.Context, id uuid.UUID) (*models.ProductModel, error) {
	return retryRead(ctx, func() (*models.ProductModel, error) {
		var m models.ProductModel
		if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, catalog.ErrProductNotFound
			}
			return nil, storageError(err)
		}
		return &m, nil
	})
}

// DecrementStock subtracts qty in a single conditional UPDATE, so concurrent
// settlements can never drive stock negative.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (int, error) {
	if qty < 1 {
		return 0, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	var m models.ProductModel
	result := r.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock"}}}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, catalog.ErrProductNotFound
		}
		return 0, catalog.NewInsufficientStockError(id)
	}
	return m.Stock, nil
}

func (r *GormProductRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, storageError(err)
	}
	return count > 0, nil
}

// FindInStock lists products with stock > 0, newest first by default
func (r *GormProductRepository) FindInStock(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	type page struct {
		rows  []models.ProductModel
		total int64
	}
	p, err := retryRead(ctx, func() (page, error) {
		query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("stock > 0"), filter)

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return page{}, storageError(err)
		}

		var rows []models.ProductModel
		err := query.
			Order(orderClause(filter.OrderBy, filter.OrderDir, ProductSortFields)).
			Offset(filter.Offset()).
			Limit(filter.PageSize).
			Find(&rows).Error
		if err != nil {
			return page{}, storageError(err)
		}
		return page{rows: rows, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, len(p.rows))
	for i := range p.rows {
		products[i] = *p.rows[i].ToDomain()
	}
	return products, p.total, nil
}

// applyFilter applies search and group filters
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	if brandID, ok := filter.Filters["brand_id"]; ok {
		query = query.Where("brand_id = ?", brandID)
	}
	if categoryID, ok := filter.Filters["category_id"]; ok {
		query = query.Where("category_id = ?", categoryID)
	}
	return query
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// Ensure GormProductRepository implements the catalog interfaces
var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.Lookup            = (*GormProductRepository)(nil)
)
