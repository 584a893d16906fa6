package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts a miniredis server and a client pointing at it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func sampleCart(t *testing.T, sessionID string) *cart.Cart {
	t.Helper()
	c := cart.New(sessionID)
	for _, p := range []*catalog.ProductSnapshot{
		{ID: uuid.New(), Name: "Desk Lamp", Price: decimal.RequireFromString("100.00"), Discount: 10, Stock: 4, Colors: []string{"red"}},
		{ID: uuid.New(), Name: "Bulb", Price: decimal.RequireFromString("3.25"), Stock: 40},
	} {
		_, err := c.Add(p, 2, "")
		require.NoError(t, err)
	}
	return c
}

func TestRedisCartStore_Get(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour)
	ctx := context.Background()

	t.Run("missing cart is empty", func(t *testing.T) {
		c, err := store.Get(ctx, "session-none")
		require.NoError(t, err)
		assert.Equal(t, "session-none", c.SessionID)
		assert.True(t, c.IsEmpty())
	})

	t.Run("round trips lines in order", func(t *testing.T) {
		saved := sampleCart(t, "session-1")
		require.NoError(t, store.Save(ctx, saved))

		c, err := store.Get(ctx, "session-1")
		require.NoError(t, err)
		require.Len(t, c.Lines, 2)
		assert.Equal(t, "Desk Lamp", c.Lines[0].Name)
		assert.Equal(t, "Bulb", c.Lines[1].Name)
		assert.True(t, decimal.RequireFromString("100.00").Equal(c.Lines[0].UnitPrice))
		assert.Equal(t, []string{"red"}, c.Lines[0].AvailableColors)
	})

	t.Run("corrupt document", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "cart:session-bad", "{not json", 0).Err())
		_, err := store.Get(ctx, "session-bad")
		assert.Error(t, err)
	})
}

func TestRedisCartStore_SaveSetsTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart(t, "session-ttl")))
	assert.True(t, mr.Exists("cart:session-ttl"))
	assert.Equal(t, 2*time.Hour, mr.TTL("cart:session-ttl"))

	mr.FastForward(3 * time.Hour)
	c, err := store.Get(ctx, "session-ttl")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestRedisCartStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart(t, "session-del")))
	require.NoError(t, store.Delete(ctx, "session-del"))
	assert.False(t, mr.Exists("cart:session-del"))

	// deleting again is fine
	assert.NoError(t, store.Delete(ctx, "session-del"))
}

func TestRedisCartStore_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour)
	mr.Close()

	_, err := store.Get(context.Background(), "session-1")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), cart.New("session-1")))
}
