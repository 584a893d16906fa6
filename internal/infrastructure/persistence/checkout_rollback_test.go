package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupSQLiteFile opens a file-backed database. A transaction whose context
// is cancelled may close its connection, which would drop an in-memory one.
func setupSQLiteFile(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "storefront.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.BrandModel{},
		&models.CategoryModel{},
		&models.ProductModel{},
		&models.OrderModel{},
		&models.OrderLineItemModel{},
	))
	return db
}

// cancelBeforeCreate cancels the checkout context once the stock decrements
// are done and the order insert is about to run.
type cancelBeforeCreate struct {
	orderapp.TransactionScope
	cancel context.CancelFunc
}

func (s *cancelBeforeCreate) Execute(ctx context.Context, fn func(repos orderapp.TransactionalRepositories) error) error {
	return s.TransactionScope.Execute(ctx, func(repos orderapp.TransactionalRepositories) error {
		return fn(&cancellingRepos{TransactionalRepositories: repos, cancel: s.cancel})
	})
}

type cancellingRepos struct {
	orderapp.TransactionalRepositories
	cancel context.CancelFunc
}

func (r *cancellingRepos) OrderRepo() order.Repository {
	return &cancellingOrders{Repository: r.TransactionalRepositories.OrderRepo(), cancel: r.cancel}
}

type cancellingOrders struct {
	order.Repository
	cancel context.CancelFunc
}

func (r *cancellingOrders) Create(ctx context.Context, o *order.Order) error {
	r.cancel()
	return r.Repository.Create(ctx, o)
}

func TestCheckout_CancelledBeforeOrderInsert(t *testing.T) {
	db := setupSQLiteFile(t)
	products := NewGormProductRepository(db)
	orders := NewGormOrderRepository(db)

	lamp := seedProduct(t, products, "Desk Lamp", "100.00", 10, 5)
	chair := seedProduct(t, products, "Chair", "40.00", 0, 3)

	carts := cache.NewInMemoryCartStore(time.Hour)
	t.Cleanup(func() { carts.Close() })

	c := cart.New("sess-1")
	for _, line := range []struct {
		id  uuid.UUID
		qty int
	}{{lamp.ID, 2}, {chair.ID, 1}} {
		snap, err := products.Get(context.Background(), line.id)
		require.NoError(t, err)
		_, err = c.Add(snap, line.qty, "red")
		require.NoError(t, err)
	}
	require.NoError(t, carts.Save(context.Background(), c))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := orderapp.NewOrderService(
		&cancelBeforeCreate{TransactionScope: NewGormTransactionScope(db), cancel: cancel},
		orders,
		carts,
		cache.NewInMemorySessionLocker(time.Second),
		order.NewRandomInvoiceGenerator(order.MinInvoiceBytes),
		pricing.NewDefaultCalculator(),
		nil,
	)

	_, err := svc.Checkout(ctx, "sess-1", uuid.New())
	require.Error(t, err)

	bg := context.Background()
	for id, want := range map[uuid.UUID]int{lamp.ID: 5, chair.ID: 3} {
		p, err := products.FindByID(bg, id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Stock, p.Name)
	}

	var placed, lines int64
	require.NoError(t, db.Model(&models.OrderModel{}).Count(&placed).Error)
	require.NoError(t, db.Model(&models.OrderLineItemModel{}).Count(&lines).Error)
	assert.Zero(t, placed)
	assert.Zero(t, lines)

	kept, err := carts.Get(bg, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, kept.ItemCount())
	line, ok := kept.Line(lamp.ID)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
}
