package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormCatalogMetricsProvider implements CatalogMetricsProvider by querying
// the products table directly.
type GormCatalogMetricsProvider struct {
	db *gorm.DB
}

// NewGormCatalogMetricsProvider creates a new GormCatalogMetricsProvider.
func NewGormCatalogMetricsProvider(db *gorm.DB) *GormCatalogMetricsProvider {
	return &GormCatalogMetricsProvider{db: db}
}

// CountOutOfStock returns the number of products with zero stock.
func (p *GormCatalogMetricsProvider) CountOutOfStock(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("stock <= 0").
		Count(&count).Error
	return count, err
}

// SumStock returns the total stock across all products.
func (p *GormCatalogMetricsProvider) SumStock(ctx context.Context) (int64, error) {
	var total int64
	err := p.db.WithContext(ctx).
		Table("products").
		Select("COALESCE(SUM(stock), 0)").
		Scan(&total).Error
	return total, err
}

var _ CatalogMetricsProvider = (*GormCatalogMetricsProvider)(nil)
