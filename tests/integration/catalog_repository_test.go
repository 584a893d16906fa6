package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormProductRepository(tdb.DB)
	ctx := context.Background()

	brand, category := tdb.SeedGroups()
	otherBrand, _ := tdb.SeedGroups()
	lamp := tdb.SeedProductIn(brand.ID, category.ID, "Desk Lamp", "49.90", 10, 5)
	tdb.SeedProductIn(brand.ID, category.ID, "Floor Lamp", "129.00", 0, 2)
	tdb.SeedProductIn(brand.ID, category.ID, "Sold Out Lamp", "15.00", 0, 0)
	tdb.SeedProductIn(otherBrand.ID, category.ID, "Armchair", "350.00", 5, 1)

	t.Run("Get returns the snapshot", func(t *testing.T) {
		snap, err := repo.Get(ctx, lamp.ID)
		require.NoError(t, err)
		assert.Equal(t, "Desk Lamp", snap.Name)
		assert.True(t, decimal.RequireFromString("49.90").Equal(snap.Price))
		assert.Equal(t, 10, snap.Discount)
		assert.Equal(t, []string{"black", "white"}, snap.Colors)

		_, err = repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})

	t.Run("FindInStock hides sold out products", func(t *testing.T) {
		filter := shared.DefaultFilter()
		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, p := range products {
			assert.NotEqual(t, "Sold Out Lamp", p.Name)
		}
	})

	t.Run("FindInStock searches case insensitively", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "LAMP"
		filter.OrderBy = "name"
		filter.OrderDir = "asc"

		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, products, 2)
		assert.Equal(t, "Desk Lamp", products[0].Name)
		assert.Equal(t, "Floor Lamp", products[1].Name)
	})

	t.Run("FindInStock filters by brand", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["brand_id"] = otherBrand.ID

		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, products, 1)
		assert.Equal(t, "Armchair", products[0].Name)
	})

	t.Run("FindInStock paginates", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "price"
		filter.OrderDir = "desc"
		filter.PageSize = 2
		filter.Page = 2

		products, total, err := repo.FindInStock(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, products, 1)
		assert.Equal(t, "Desk Lamp", products[0].Name)
	})
}

func TestGroupRepository_DuplicateName(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormBrandRepository(tdb.DB)
	ctx := context.Background()

	first, err := catalog.NewBrand("Nordic")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := catalog.NewBrand("Nordic")
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	exists, err := repo.ExistsByName(ctx, "nordic")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProductRepository_ConcurrentDecrement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormProductRepository(tdb.DB)
	ctx := context.Background()

	const stock = 5
	product := tdb.SeedProduct("Limited Vase", "80.00", 0, stock)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		short     atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DecrementStock(ctx, product.ID, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, catalog.ErrInsufficientStock):
				short.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(stock), succeeded.Load())
	assert.Equal(t, int32(20-stock), short.Load())

	got, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, 1+stock, got.Version)
}
