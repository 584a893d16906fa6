package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBrandRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormBrandRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Zephyr", "Acme"} {
		b, err := catalog.NewBrand(name)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, b))
	}

	t.Run("lists by name", func(t *testing.T) {
		brands, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, brands, 2)
		assert.Equal(t, "Acme", brands[0].Name)
		assert.Equal(t, "Zephyr", brands[1].Name)
	})

	t.Run("name lookup ignores case", func(t *testing.T) {
		exists, err := repo.ExistsByName(ctx, "acme")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate name", func(t *testing.T) {
		b, err := catalog.NewBrand("Acme")
		require.NoError(t, err)
		err = repo.Save(ctx, b)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrBrandNotFound)
	})

	t.Run("rename", func(t *testing.T) {
		b, err := catalog.NewBrand("Initech")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, b))

		require.NoError(t, b.Rename("Globex"))
		require.NoError(t, repo.Save(ctx, b))

		found, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Globex", found.Name)
	})
}

func TestGormBrandRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormBrandRepository(db)
	products := NewGormProductRepository(db)
	ctx := context.Background()

	used, err := catalog.NewBrand("Acme")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, used))
	p, err := catalog.NewProduct("Desk Lamp", decimal.RequireFromString("100.00"), 0, 3, used.ID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, p))

	t.Run("refused while products reference it", func(t *testing.T) {
		err := repo.Delete(ctx, used.ID)
		assert.ErrorIs(t, err, catalog.ErrBrandInUse)

		_, err = repo.FindByID(ctx, used.ID)
		assert.NoError(t, err)
	})

	t.Run("deleted once unreferenced", func(t *testing.T) {
		require.NoError(t, products.Delete(ctx, p.ID))
		require.NoError(t, repo.Delete(ctx, used.ID))

		_, err := repo.FindByID(ctx, used.ID)
		assert.ErrorIs(t, err, catalog.ErrBrandNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), catalog.ErrBrandNotFound)
	})
}

func TestGormCategoryRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	c, err := catalog.NewCategory("Lighting")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lighting", found.Name)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestGormCategoryRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormCategoryRepository(db)
	products := NewGormProductRepository(db)
	ctx := context.Background()

	used, err := catalog.NewCategory("Lighting")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, used))
	empty, err := catalog.NewCategory("Seating")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, empty))

	p, err := catalog.NewProduct("Desk Lamp", decimal.RequireFromString("100.00"), 0, 3, uuid.New(), used.ID)
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, p))

	assert.ErrorIs(t, repo.Delete(ctx, used.ID), catalog.ErrCategoryInUse)

	require.NoError(t, repo.Delete(ctx, empty.ID))
	_, err = repo.FindByID(ctx, empty.ID)
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, empty.ID), catalog.ErrCategoryNotFound)
}
