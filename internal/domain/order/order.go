// Package order holds the settled order aggregate.
package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
)

const maxInvoiceLength = 64

var (
	ErrOrderNotFound              = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	ErrInvalidTransition          = shared.NewDomainError("INVALID_TRANSITION", "Order status cannot change that way")
	ErrInvoiceGenerationExhausted = shared.NewDomainError("INVOICE_GENERATION_EXHAUSTED", "Could not allocate an invoice number")
	ErrDuplicateInvoice           = shared.NewDomainError("DUPLICATE_INVOICE", "Invoice number already in use")
	ErrPaymentFailed              = shared.NewDomainError("PAYMENT_FAILED", "Payment could not be completed")
)

// Status represents the payment status of an order
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusPaid
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target. Only
// pending -> paid is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && target == StatusPaid
}

// LineItem is a product line captured at checkout. It does not reference
// the live product for pricing.
type LineItem struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent int             `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	Color           string          `json:"color"`
}

// PricingLine returns the pricing view of the line item
func (l LineItem) PricingLine() pricing.Line {
	return pricing.Line{
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		Quantity:        l.Quantity,
	}
}

// Order is the aggregate produced by checkout. Only Status (and PaidAt)
// change after creation; totals are recomputed from LineItems on demand.
type Order struct {
	shared.BaseAggregateRoot
	Invoice    string
	Status     Status
	CustomerID uuid.UUID
	LineItems  []LineItem
	PaidAt     *time.Time
}

// NewOrder creates a pending order from a line snapshot
func NewOrder(invoice string, customerID uuid.UUID, items []LineItem) (*Order, error) {
	if invoice == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice cannot be empty")
	}
	if len(invoice) > maxInvoiceLength {
		return nil, shared.NewDomainError("INVALID_INVOICE", fmt.Sprintf("Invoice cannot exceed %d characters", maxInvoiceLength))
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "An order needs at least one line item")
	}

	snapshot := make([]LineItem, len(items))
	for i, item := range items {
		if err := item.PricingLine().Validate(); err != nil {
			return nil, err
		}
		snapshot[i] = item
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Invoice:           invoice,
		Status:            StatusPending,
		CustomerID:        customerID,
		LineItems:         snapshot,
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))

	return o, nil
}

// MarkPaid moves a pending order to paid. Calling it on a paid order fails
// with ErrInvalidTransition.
func (o *Order) MarkPaid() error {
	if !o.Status.CanTransitionTo(StatusPaid) {
		return ErrInvalidTransition.WithDetail("status", o.Status.String())
	}

	now := time.Now().UTC()
	o.Status = StatusPaid
	o.PaidAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPaidEvent(o))

	return nil
}

// IsPaid reports whether the order has been paid
func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid
}

// Items returns a copy of the line items
func (o *Order) Items() []LineItem {
	out := make([]LineItem, len(o.LineItems))
	copy(out, o.LineItems)
	return out
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.LineItems {
		n += item.Quantity
	}
	return n
}

// PricingLines returns the line items in pricing form
func (o *Order) PricingLines() []pricing.Line {
	out := make([]pricing.Line, len(o.LineItems))
	for i, item := range o.LineItems {
		out[i] = item.PricingLine()
	}
	return out
}

// Totals recomputes the order totals from the snapshot
func (o *Order) Totals(calc *pricing.Calculator) (pricing.Totals, error) {
	return calc.Compute(o.PricingLines())
}
