package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(price string, discount, stock int) *catalog.ProductSnapshot {
	return &catalog.ProductSnapshot{
		ID:       uuid.New(),
		Name:     "Canvas Tote",
		Price:    decimal.RequireFromString(price),
		Discount: discount,
		Stock:    stock,
		ImageRef: "tote.jpg",
		Colors:   []string{"natural", "black"},
	}
}

func TestCart_Add(t *testing.T) {
	t.Run("new line captures snapshot", func(t *testing.T) {
		c := New("s1")
		p := snapshot("25.00", 5, 9)

		outcome, err := c.Add(p, 2, "black")
		require.NoError(t, err)
		assert.Equal(t, AddOutcomeAdded, outcome)

		line, ok := c.Line(p.ID)
		require.True(t, ok)
		assert.Equal(t, 2, line.Quantity)
		assert.Equal(t, "black", line.Color)
		assert.Equal(t, 5, line.DiscountPercent)
		assert.Equal(t, 9, line.StockAtAddTime)
		assert.Equal(t, []string{"natural", "black"}, line.AvailableColors)
	})

	t.Run("duplicate add merges quantity", func(t *testing.T) {
		c := New("s1")
		p := snapshot("25.00", 5, 9)

		_, err := c.Add(p, 2, "black")
		require.NoError(t, err)

		repriced := *p
		repriced.Price = decimal.RequireFromString("30.00")
		outcome, err := c.Add(&repriced, 3, "natural")
		require.NoError(t, err)
		assert.Equal(t, AddOutcomeMerged, outcome)

		require.Len(t, c.Lines, 1)
		line := c.Lines[0]
		assert.Equal(t, 5, line.Quantity)
		assert.Equal(t, "black", line.Color)
		assert.Equal(t, "25.00", line.UnitPrice.StringFixed(2))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		c := New("s1")
		_, err := c.Add(snapshot("1", 0, 1), 0, "")
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.True(t, c.IsEmpty())
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		c := New("s1")
		a, b, d := snapshot("1", 0, 1), snapshot("2", 0, 1), snapshot("3", 0, 1)
		for _, p := range []*catalog.ProductSnapshot{a, b, d} {
			_, err := c.Add(p, 1, "")
			require.NoError(t, err)
		}
		_, err := c.Add(a, 1, "")
		require.NoError(t, err)

		ids := []uuid.UUID{c.Lines[0].ProductID, c.Lines[1].ProductID, c.Lines[2].ProductID}
		assert.Equal(t, []uuid.UUID{a.ID, b.ID, d.ID}, ids)
		assert.Equal(t, 4, c.ItemCount())
	})
}

func TestCart_Update(t *testing.T) {
	c := New("s1")
	p := snapshot("10", 0, 5)
	_, err := c.Add(p, 1, "natural")
	require.NoError(t, err)

	t.Run("updates quantity and color", func(t *testing.T) {
		require.NoError(t, c.Update(p.ID, 4, "black"))
		line, _ := c.Line(p.ID)
		assert.Equal(t, 4, line.Quantity)
		assert.Equal(t, "black", line.Color)
	})

	t.Run("missing line", func(t *testing.T) {
		assert.ErrorIs(t, c.Update(uuid.New(), 1, ""), ErrLineNotFound)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		assert.ErrorIs(t, c.Update(p.ID, 0, ""), ErrInvalidQuantity)
		assert.ErrorIs(t, c.Update(p.ID, -3, ""), ErrInvalidQuantity)
		line, _ := c.Line(p.ID)
		assert.Equal(t, 4, line.Quantity)
	})
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New("s1")
	p := snapshot("10", 0, 5)
	_, err := c.Add(p, 1, "")
	require.NoError(t, err)

	assert.False(t, c.Remove(uuid.New()))
	assert.Len(t, c.Lines, 1)

	assert.True(t, c.Remove(p.ID))
	assert.True(t, c.IsEmpty())

	_, err = c.Add(p, 1, "")
	require.NoError(t, err)
	c.Clear()
	assert.True(t, c.IsEmpty())
	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestCart_PricingLines(t *testing.T) {
	c := New("s1")
	p := snapshot("100.00", 10, 5)
	_, err := c.Add(p, 2, "")
	require.NoError(t, err)

	lines := c.PricingLines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 10, lines[0].DiscountPercent)
	assert.Equal(t, "180.00", lines[0].Net().StringFixed(2))
}
