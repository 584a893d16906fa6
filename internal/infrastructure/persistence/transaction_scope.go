package persistence

import (
	"context"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements orderapp.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn rolls
// the transaction back; otherwise it commits.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos orderapp.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return storageError(err)
}

// gormTransactionalRepositories scopes repositories to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// OrderRepo returns the order repository bound to the transaction.
func (r *gormTransactionalRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

// StockRepo returns the product stock repository bound to the transaction.
func (r *gormTransactionalRepositories) StockRepo() catalog.Lookup {
	return NewGormProductRepository(r.tx)
}

var (
	_ orderapp.TransactionScope          = (*GormTransactionScope)(nil)
	_ orderapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
