package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupSQLiteDB opens an in-memory database with the storefront tables
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&models.BrandModel{},
		&models.CategoryModel{},
		&models.ProductModel{},
		&models.OrderModel{},
		&models.OrderLineItemModel{},
	)
	require.NoError(t, err)
	return db
}

func seedProduct(t *testing.T, repo *GormProductRepository, name string, price string, discount, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.RequireFromString(price), discount, stock, uuid.New(), uuid.New())
	require.NoError(t, err)
	p.SetColors([]string{"red", "blue"})
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestGormProductRepository_Get(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("returns the cart snapshot", func(t *testing.T) {
		p := seedProduct(t, repo, "Desk Lamp", "100.00", 10, 4)

		snap, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, snap.ID)
		assert.Equal(t, "Desk Lamp", snap.Name)
		assert.True(t, decimal.NewFromInt(100).Equal(snap.Price))
		assert.Equal(t, 10, snap.Discount)
		assert.Equal(t, 4, snap.Stock)
		assert.Equal(t, []string{"red", "blue"}, snap.Colors)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})
}

func TestGormProductRepository_DecrementStock(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("decrements and returns the new stock", func(t *testing.T) {
		p := seedProduct(t, repo, "Mug", "12.50", 0, 5)

		stock, err := repo.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, stock)

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, found.Stock)
		assert.Equal(t, p.Version+1, found.Version)
	})

	t.Run("takes the last unit", func(t *testing.T) {
		p := seedProduct(t, repo, "Poster", "5", 0, 1)

		stock, err := repo.DecrementStock(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, stock)
	})

	t.Run("insufficient stock leaves the row untouched", func(t *testing.T) {
		p := seedProduct(t, repo, "Chair", "80", 0, 1)

		_, err := repo.DecrementStock(ctx, p.ID, 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, p.ID.String(), domainErr.Details["product_id"])

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.Stock)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := repo.DecrementStock(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p := seedProduct(t, repo, "Pen", "1", 0, 3)

		_, err := repo.DecrementStock(ctx, p.ID, 0)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	})

	t.Run("concurrent decrements never oversell", func(t *testing.T) {
		p := seedProduct(t, repo, "Limited Print", "40", 0, 3)

		var wg sync.WaitGroup
		var succeeded atomic.Int32
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.DecrementStock(ctx, p.ID, 1); err == nil {
					succeeded.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(3), succeeded.Load())
		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.Stock)
	})
}

func TestGormProductRepository_FindInStock(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	lamp := seedProduct(t, repo, "Desk Lamp", "30", 0, 2)
	seedProduct(t, repo, "Floor Lamp", "60", 0, 0)
	seedProduct(t, repo, "Rug", "90", 5, 7)

	t.Run("skips sold out products", func(t *testing.T) {
		filter := shared.DefaultFilter()
		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, products, 2)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "LAMP"
		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, products, 1)
		assert.Equal(t, lamp.ID, products[0].ID)
	})

	t.Run("filters by brand", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["brand_id"] = lamp.BrandID
		products, _, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, lamp.ID, products[0].ID)
	})

	t.Run("paginates", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.PageSize = 1
		filter.Page = 2
		filter.OrderBy = "price"
		filter.OrderDir = "asc"
		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, products, 1)
		assert.Equal(t, "Rug", products[0].Name)
	})
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, repo, "Desk Lamp", "100.00", 10, 4)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), catalog.ErrProductNotFound)
}
