// Package pricing computes cart and order totals from line snapshots.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// CurrencyPlaces is the number of decimal places kept on rounded amounts.
const CurrencyPlaces int32 = 2

// DefaultTaxRate is the flat sales tax applied to the subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.05")

var hundred = decimal.NewFromInt(100)

// ErrInvalidLineItem is returned when a line carries a negative price,
// a discount outside [0,100] or a non-positive quantity.
var ErrInvalidLineItem = shared.NewDomainError("INVALID_LINE_ITEM", "Line item is invalid")

// Line is the pricing view of a cart line or order line item.
type Line struct {
	UnitPrice       decimal.Decimal
	DiscountPercent int
	Quantity        int
}

// Gross returns unit price times quantity.
func (l Line) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount returns the discount amount for the whole line, unrounded.
func (l Line) Discount() decimal.Decimal {
	return l.Gross().Mul(decimal.NewFromInt(int64(l.DiscountPercent))).Div(hundred)
}

// Net returns the line amount after discount, unrounded.
func (l Line) Net() decimal.Decimal {
	return l.Gross().Sub(l.Discount())
}

// Validate checks the line against the pricing preconditions
func (l Line) Validate() error {
	if derr := l.validate(); derr != nil {
		return derr
	}
	return nil
}

func (l Line) validate() *shared.DomainError {
	if l.UnitPrice.IsNegative() {
		return ErrInvalidLineItem.WithDetail("reason", "unit price must not be negative")
	}
	if l.DiscountPercent < 0 || l.DiscountPercent > 100 {
		return ErrInvalidLineItem.WithDetail("reason", "discount must be between 0 and 100")
	}
	if l.Quantity < 1 {
		return ErrInvalidLineItem.WithDetail("reason", "quantity must be positive")
	}
	return nil
}

// Totals holds the rounded amounts for a set of lines.
type Totals struct {
	Discount decimal.Decimal `json:"discount"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator computes totals with a fixed tax rate.
// The zero value is not usable; construct with NewCalculator.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator creates a calculator for the given tax rate (0.05 = 5%).
func NewCalculator(taxRate decimal.Decimal) (*Calculator, error) {
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("pricing: tax rate %s out of range [0,1]", taxRate)
	}
	return &Calculator{taxRate: taxRate}, nil
}

// NewDefaultCalculator returns a calculator using DefaultTaxRate.
func NewDefaultCalculator() *Calculator {
	return &Calculator{taxRate: DefaultTaxRate}
}

// TaxRate returns the configured tax rate.
func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Compute sums line nets at full precision and rounds only the final
// subtotal, tax and total. An empty slice yields zero totals.
func (c *Calculator) Compute(lines []Line) (Totals, error) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for i, l := range lines {
		if derr := l.validate(); derr != nil {
			return Totals{}, derr.WithDetail("line", i)
		}
		subtotal = subtotal.Add(l.Net())
		discount = discount.Add(l.Discount())
	}

	tax := subtotal.Mul(c.taxRate).Round(CurrencyPlaces)
	roundedSubtotal := subtotal.Round(CurrencyPlaces)

	return Totals{
		Discount: discount.Round(CurrencyPlaces),
		Subtotal: roundedSubtotal,
		Tax:      tax,
		Total:    roundedSubtotal.Add(tax).Round(CurrencyPlaces),
	}, nil
}

// Compute is a convenience wrapper using the default tax rate.
func Compute(lines []Line) (Totals, error) {
	return NewDefaultCalculator().Compute(lines)
}
