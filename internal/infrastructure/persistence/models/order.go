package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	Invoice    string               `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status     order.Status         `gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerID uuid.UUID            `gorm:"type:uuid;not null;index"`
	PaidAt     *time.Time           `gorm:"index"`
	Items      []OrderLineItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
// Line items are returned in their stored position.
func (m *OrderModel) ToDomain() *order.Order {
	items := make([]order.LineItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Invoice:           m.Invoice,
		Status:            m.Status,
		CustomerID:        m.CustomerID,
		LineItems:         items,
		PaidAt:            m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Invoice = o.Invoice
	m.Status = o.Status
	m.CustomerID = o.CustomerID
	m.PaidAt = o.PaidAt
	m.Items = make([]OrderLineItemModel, len(o.LineItems))
	for i, item := range o.LineItems {
		m.Items[i] = OrderLineItemModel{
			ID:              uuid.New(),
			OrderID:         o.ID,
			Position:        i,
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
			Color:           item.Color,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineItemModel is one product line captured at checkout.
type OrderLineItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"not null;default:0"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name            string          `gorm:"type:varchar(80);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercent int             `gorm:"not null;default:0"`
	Quantity        int             `gorm:"not null"`
	Color           string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *OrderLineItemModel) ToDomain() order.LineItem {
	return order.LineItem{
		ProductID:       m.ProductID,
		Name:            m.Name,
		UnitPrice:       m.UnitPrice,
		DiscountPercent: m.DiscountPercent,
		Quantity:        m.Quantity,
		Color:           m.Color,
	}
}
