package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/pricing"
)

// ==================== Request DTOs ====================

// ListOrdersRequest holds pagination for a customer's orders
type ListOrdersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid"`
}

// PayRequest carries what the payment gateway needs to charge an order
type PayRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Name          string `json:"name" binding:"max=100"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// MarkPaidRequest names the customer whose order was paid outside the gateway
type MarkPaidRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// ==================== Response DTOs ====================

// LineItemResponse is an order line item with its computed net amount
type LineItemResponse struct {
	ProductID       uuid.UUID      `json:"product_id"`
	Name            string         `json:"name"`
	UnitPrice       pricing.Amount `json:"unit_price"`
	DiscountPercent int            `json:"discount_percent"`
	Quantity        int            `json:"quantity"`
	Color           string         `json:"color"`
	LineTotal       pricing.Amount `json:"line_total"`
}

// OrderResponse is the order view with totals recomputed from line items
type OrderResponse struct {
	ID         uuid.UUID          `json:"id"`
	Invoice    string             `json:"invoice"`
	Status     string             `json:"status"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Items      []LineItemResponse `json:"items"`
	ItemCount  int                `json:"item_count"`
	Discount   pricing.Amount     `json:"discount"`
	Subtotal   pricing.Amount     `json:"subtotal"`
	Tax        pricing.Amount     `json:"tax"`
	Total      pricing.Amount     `json:"total"`
	PaidAt     *time.Time         `json:"paid_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	Version    int                `json:"version"`
}

// OrderListItemResponse is the compact order row used in lists
type OrderListItemResponse struct {
	Invoice   string         `json:"invoice"`
	Status    string         `json:"status"`
	ItemCount int            `json:"item_count"`
	Total     pricing.Amount `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
}

// PaymentResponse reports a captured payment
type PaymentResponse struct {
	Gateway   string        `json:"gateway"`
	PaymentID string        `json:"payment_id"`
	Order     OrderResponse `json:"order"`
}

// ToOrderResponse converts an order and its totals
func ToOrderResponse(o *order.Order, totals pricing.Totals) OrderResponse {
	items := make([]LineItemResponse, len(o.LineItems))
	for i, item := range o.LineItems {
		items[i] = LineItemResponse{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       pricing.NewAmount(item.UnitPrice),
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
			Color:           item.Color,
			LineTotal:       pricing.NewAmount(item.PricingLine().Net()),
		}
	}

	return OrderResponse{
		ID:         o.ID,
		Invoice:    o.Invoice,
		Status:     o.Status.String(),
		CustomerID: o.CustomerID,
		Items:      items,
		ItemCount:  o.ItemCount(),
		Discount:   pricing.NewAmount(totals.Discount),
		Subtotal:   pricing.NewAmount(totals.Subtotal),
		Tax:        pricing.NewAmount(totals.Tax),
		Total:      pricing.NewAmount(totals.Total),
		PaidAt:     o.PaidAt,
		CreatedAt:  o.CreatedAt,
		Version:    o.Version,
	}
}

// ToOrderListItemResponse converts an order to its list row
func ToOrderListItemResponse(o *order.Order, totals pricing.Totals) OrderListItemResponse {
	return OrderListItemResponse{
		Invoice:   o.Invoice,
		Status:    o.Status.String(),
		ItemCount: o.ItemCount(),
		Total:     pricing.NewAmount(totals.Total),
		CreatedAt: o.CreatedAt,
	}
}
