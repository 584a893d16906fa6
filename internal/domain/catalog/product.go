package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	maxProductNameLength = 80
	maxImageRefLength    = 150
)

// Product is a sellable item. Price and discount are read when a cart line
// is created; stock is decremented during settlement.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Price       decimal.Decimal
	Discount    int // percent, 0-100
	Stock       int
	Colors      string // comma separated
	BrandID     uuid.UUID
	CategoryID  uuid.UUID
	Image1      string
	Image2      string
	Image3      string
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal, discount, stock int, brandID, categoryID uuid.UUID) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePricing(price, discount); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}
	if brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRAND", "Brand is required")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Price:             price,
		Discount:          discount,
		Stock:             stock,
		BrandID:           brandID,
		CategoryID:        categoryID,
	}, nil
}

// Update updates the product's descriptive fields
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.touch()
	return nil
}

// SetPricing sets the list price and discount percent
func (p *Product) SetPricing(price decimal.Decimal, discount int) error {
	if err := validatePricing(price, discount); err != nil {
		return err
	}
	p.Price = price
	p.Discount = discount
	p.touch()
	return nil
}

// SetStock overwrites the stock level (back-office restock)
func (p *Product) SetStock(stock int) error {
	if err := validateStock(stock); err != nil {
		return err
	}
	p.Stock = stock
	p.touch()
	return nil
}

// DecreaseStock removes qty units, failing if not enough are on hand
func (p *Product) DecreaseStock(qty int) error {
	if qty < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if qty > p.Stock {
		return NewInsufficientStockError(p.ID)
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// SetColors replaces the available colors
func (p *Product) SetColors(colors []string) {
	cleaned := make([]string, 0, len(colors))
	for _, c := range colors {
		c = strings.TrimSpace(c)
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}
	p.Colors = strings.Join(cleaned, ",")
	p.touch()
}

// ColorList returns the available colors
func (p *Product) ColorList() []string {
	if p.Colors == "" {
		return []string{}
	}
	parts := strings.Split(p.Colors, ",")
	out := make([]string, 0, len(parts))
	for _, c := range parts {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// SetImages sets up to three image references; missing ones are cleared
func (p *Product) SetImages(refs ...string) error {
	imgs := [3]string{}
	for i, ref := range refs {
		if i >= len(imgs) {
			return shared.NewDomainError("INVALID_IMAGE", "A product has at most three images")
		}
		if len(ref) > maxImageRefLength {
			return shared.NewDomainError("INVALID_IMAGE", "Image reference is too long")
		}
		imgs[i] = ref
	}
	p.Image1, p.Image2, p.Image3 = imgs[0], imgs[1], imgs[2]
	p.touch()
	return nil
}

// InStock reports whether at least one unit is available
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Snapshot captures the fields a cart line needs
func (p *Product) Snapshot() *ProductSnapshot {
	return &ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Discount: p.Discount,
		Stock:    p.Stock,
		ImageRef: p.Image1,
		Colors:   p.ColorList(),
	}
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
	p.IncrementVersion()
}

// ProductSnapshot is the denormalized, read-only view of a product used to
// build a cart line.
type ProductSnapshot struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	Discount int
	Stock    int
	ImageRef string
	Colors   []string
}

func validateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > maxProductNameLength {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 80 characters")
	}
	return nil
}

func validatePricing(price decimal.Decimal, discount int) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if discount < 0 || discount > 100 {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount must be between 0 and 100")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return nil
}
