package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductModel_RoundTrip(t *testing.T) {
	p, err := catalog.NewProduct("Desk Lamp", decimal.RequireFromString("49.90"), 15, 7, uuid.New(), uuid.New())
	require.NoError(t, err)
	p.SetColors([]string{"black", "white"})
	require.NoError(t, p.SetImages("lamp-1.jpg"))

	m := ProductModelFromDomain(p)
	assert.Equal(t, "products", m.TableName())
	assert.Equal(t, p.Version, m.Version)

	back := m.ToDomain()
	assert.Equal(t, p.ID, back.ID)
	assert.True(t, p.Price.Equal(back.Price))
	assert.Equal(t, []string{"black", "white"}, back.ColorList())
	assert.Empty(t, back.GetDomainEvents())

	snap := m.ToSnapshot()
	assert.Equal(t, "lamp-1.jpg", snap.ImageRef)
	assert.Equal(t, 7, snap.Stock)
}

func TestOrderModel_PreservesLineOrder(t *testing.T) {
	items := []order.LineItem{
		{ProductID: uuid.New(), Name: "B", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
		{ProductID: uuid.New(), Name: "A", UnitPrice: decimal.NewFromInt(9), DiscountPercent: 10, Quantity: 3, Color: "red"},
	}
	o, err := order.NewOrder("abc123", uuid.New(), items)
	require.NoError(t, err)

	m := OrderModelFromDomain(o)
	require.Len(t, m.Items, 2)
	assert.Equal(t, 0, m.Items[0].Position)
	assert.Equal(t, 1, m.Items[1].Position)
	assert.Equal(t, o.ID, m.Items[1].OrderID)

	back := m.ToDomain()
	assert.Equal(t, order.StatusPending, back.Status)
	assert.Equal(t, items, back.LineItems)
	assert.Equal(t, "abc123", back.Invoice)
}

func TestGroupModels(t *testing.T) {
	b, err := catalog.NewBrand("Acme")
	require.NoError(t, err)
	bm := BrandModelFromDomain(b)
	assert.Equal(t, "brands", bm.TableName())
	assert.Equal(t, b.ID, bm.ToDomain().ID)

	c, err := catalog.NewCategory("Lighting")
	require.NoError(t, err)
	cm := CategoryModelFromDomain(c)
	assert.Equal(t, "categories", cm.TableName())
	assert.Equal(t, "Lighting", cm.ToDomain().Name)
}
