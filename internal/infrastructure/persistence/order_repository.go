package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByInvoice finds a customer's order by invoice
func (r *GormOrderRepository) FindByInvoice(ctx context.Context, customerID uuid.UUID, invoice string) (*order.Order, error) {
	return retryRead(ctx, func() (*order.Order, error) {
		var m models.OrderModel
		err := r.db.WithContext(ctx).
			Preload("Items", preloadItems).
			Where("invoice = ? AND customer_id = ?", invoice, customerID).
			First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, order.ErrOrderNotFound
			}
			return nil, storageError(err)
		}
		return m.ToDomain(), nil
	})
}

// ExistsByInvoice checks if any order already uses the invoice
func (r *GormOrderRepository) ExistsByInvoice(ctx context.Context, invoice string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("invoice = ?", invoice).Count(&count).Error
	if err != nil {
		return false, storageError(err)
	}
	return count > 0, nil
}

// FindByCustomer lists a customer's orders with their line items
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	type page struct {
		rows  []models.OrderModel
		total int64
	}
	p, err := retryRead(ctx, func() (page, error) {
		query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("customer_id = ?", customerID)
		if status, ok := filter.Filters["status"]; ok {
			query = query.Where("status = ?", status)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return page{}, storageError(err)
		}

		var rows []models.OrderModel
		err := query.
			Preload("Items", preloadItems).
			Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields)).
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

	orders := make([]order.Order, len(p.rows))
	for i := range p.rows {
		orders[i] = *p.rows[i].ToDomain()
	}
	return orders, p.total, nil
}

// Create inserts the order and its line items. A taken invoice yields
// order.ErrDuplicateInvoice.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicateInvoice
		}
		return storageError(err)
	}
	return nil
}

// SaveWithLock writes the status fields if the stored version still matches
// and bumps the version. A stale version yields shared.ErrConcurrencyConflict.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]any{
			"status":     o.Status,
			"paid_at":    o.PaidAt,
			"updated_at": o.UpdatedAt,
			"version":    o.Version + 1,
		})
	if result.Error != nil {
		return storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	o.Version++
	return nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
