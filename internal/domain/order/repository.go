package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByInvoice finds a customer's order by invoice.
	// Returns ErrOrderNotFound when the pair does not exist.
	FindByInvoice(ctx context.Context, customerID uuid.UUID, invoice string) (*Order, error)

	// ExistsByInvoice checks if any order already uses the invoice
	ExistsByInvoice(ctx context.Context, invoice string) (bool, error)

	// FindByCustomer lists a customer's orders, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// Create inserts a new order with its line items
	Create(ctx context.Context, order *Order) error

	// SaveWithLock updates status fields with an optimistic version check
	SaveWithLock(ctx context.Context, order *Order) error
}
