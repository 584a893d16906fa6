// Package cart models the per-session shopping cart.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
)

var (
	ErrLineNotFound    = shared.NewDomainError("LINE_NOT_FOUND", "Product is not in the cart")
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	ErrEmptyCart       = shared.NewDomainError("EMPTY_CART", "The cart is empty")
	ErrCartBusy        = shared.NewDomainError("CART_BUSY", "The cart is being updated by another request")
)

// AddOutcome tells the caller whether Add created a line or merged into one.
type AddOutcome string

const (
	AddOutcomeAdded  AddOutcome = "added"
	AddOutcomeMerged AddOutcome = "already_in_cart"
)

// Line is one product entry in a cart. Price, discount, stock and colors
// are captured when the line is first created and never refreshed.
type Line struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent int             `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	Color           string          `json:"color"`
	ImageRef        string          `json:"image_ref"`
	AvailableColors []string        `json:"available_colors"`
	StockAtAddTime  int             `json:"stock_at_add_time"`
}

// PricingLine returns the pricing view of the line
func (l Line) PricingLine() pricing.Line {
	return pricing.Line{
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		Quantity:        l.Quantity,
	}
}

// Cart is owned by exactly one session. Lines are kept in insertion order
// and hold at most one entry per product.
type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart for the session
func New(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Lines:     []Line{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Add puts qty units of the product in the cart. An existing line only has
// its quantity increased; its snapshot and color stay as they were.
func (c *Cart) Add(product *catalog.ProductSnapshot, qty int, color string) (AddOutcome, error) {
	if qty < 1 {
		return "", ErrInvalidQuantity
	}

	if i := c.indexOf(product.ID); i >= 0 {
		c.Lines[i].Quantity += qty
		c.touch()
		return AddOutcomeMerged, nil
	}

	colors := make([]string, len(product.Colors))
	copy(colors, product.Colors)

	c.Lines = append(c.Lines, Line{
		ProductID:       product.ID,
		Name:            product.Name,
		UnitPrice:       product.Price,
		DiscountPercent: product.Discount,
		Quantity:        qty,
		Color:           color,
		ImageRef:        product.ImageRef,
		AvailableColors: colors,
		StockAtAddTime:  product.Stock,
	})
	c.touch()
	return AddOutcomeAdded, nil
}

// Update sets quantity and color on an existing line
func (c *Cart) Update(productID uuid.UUID, qty int, color string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	c.Lines[i].Quantity = qty
	c.Lines[i].Color = color
	c.touch()
	return nil
}

// Remove drops the product's line. It reports whether a line was removed;
// removing an absent product is not an error.
func (c *Cart) Remove(productID uuid.UUID) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.touch()
	return true
}

// Clear removes every line
func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.touch()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line returns the line for a product
func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// ItemCount returns the total number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// PricingLines returns the lines in pricing form, in cart order
func (c *Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = l.PricingLine()
	}
	return out
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
