package cart

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/pricing"
)

// ==================== Request DTOs ====================

// AddItemRequest adds a product to the session cart.
// Quantity is validated by the cart itself so callers get INVALID_QUANTITY.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
	Color     string    `json:"color" binding:"max=50"`
}

// UpdateItemRequest replaces quantity and color of an existing line
type UpdateItemRequest struct {
	Quantity int    `json:"quantity"`
	Color    string `json:"color" binding:"max=50"`
}

// ==================== Response DTOs ====================

// LineResponse is a cart line with its computed net amount
type LineResponse struct {
	ProductID       uuid.UUID      `json:"product_id"`
	Name            string         `json:"name"`
	UnitPrice       pricing.Amount `json:"unit_price"`
	DiscountPercent int            `json:"discount_percent"`
	Quantity        int            `json:"quantity"`
	Color           string         `json:"color"`
	ImageRef        string         `json:"image_ref"`
	AvailableColors []string       `json:"available_colors"`
	StockAtAddTime  int            `json:"stock_at_add_time"`
	LineTotal       pricing.Amount `json:"line_total"`
}

// CartResponse is the cart view with totals
type CartResponse struct {
	SessionID string         `json:"session_id"`
	Lines     []LineResponse `json:"lines"`
	ItemCount int            `json:"item_count"`
	Discount  pricing.Amount `json:"discount"`
	Subtotal  pricing.Amount `json:"subtotal"`
	Tax       pricing.Amount `json:"tax"`
	Total     pricing.Amount `json:"total"`
}

// AddItemResponse reports whether the product was newly added or merged
type AddItemResponse struct {
	Outcome cart.AddOutcome `json:"outcome"`
	Line    LineResponse    `json:"line"`
}

// ToLineResponse converts a cart line
func ToLineResponse(l cart.Line) LineResponse {
	colors := l.AvailableColors
	if colors == nil {
		colors = []string{}
	}
	return LineResponse{
		ProductID:       l.ProductID,
		Name:            l.Name,
		UnitPrice:       pricing.NewAmount(l.UnitPrice),
		DiscountPercent: l.DiscountPercent,
		Quantity:        l.Quantity,
		Color:           l.Color,
		ImageRef:        l.ImageRef,
		AvailableColors: colors,
		StockAtAddTime:  l.StockAtAddTime,
		LineTotal:       pricing.NewAmount(l.PricingLine().Net()),
	}
}

// ToCartResponse converts a cart and its totals
func ToCartResponse(c *cart.Cart, totals pricing.Totals) CartResponse {
	lines := make([]LineResponse, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = ToLineResponse(l)
	}
	return CartResponse{
		SessionID: c.SessionID,
		Lines:     lines,
		ItemCount: c.ItemCount(),
		Discount:  pricing.NewAmount(totals.Discount),
		Subtotal:  pricing.NewAmount(totals.Subtotal),
		Tax:       pricing.NewAmount(totals.Tax),
		Total:     pricing.NewAmount(totals.Total),
	}
}
