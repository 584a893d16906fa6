// Package order implements checkout settlement and order queries.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	ErrInvalidSession  = shared.NewDomainError("INVALID_SESSION", "A session is required")
	ErrMissingCustomer = shared.NewDomainError("UNAUTHORIZED", "A signed-in customer is required")
)

// CheckoutRecorder receives checkout and payment measurements.
// *telemetry.BusinessMetrics satisfies it.
type CheckoutRecorder interface {
	RecordCheckout(ctx context.Context, result telemetry.CheckoutResult, d time.Duration)
	RecordPayment(ctx context.Context, gateway string, status telemetry.PaymentStatus)
}

// OrderService settles carts into orders and manages their payment status.
type OrderService struct {
	scope           TransactionScope
	orderRepo       order.Repository
	carts           cart.Store
	locker          cart.Locker
	invoices        order.InvoiceGenerator
	calc            *pricing.Calculator
	invoiceAttempts int
	eventPublisher  shared.EventPublisher
	metrics         CheckoutRecorder
	logger          *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	scope TransactionScope,
	orderRepo order.Repository,
	carts cart.Store,
	locker cart.Locker,
	invoices order.InvoiceGenerator,
	calc *pricing.Calculator,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		scope:           scope,
		orderRepo:       orderRepo,
		carts:           carts,
		locker:          locker,
		invoices:        invoices,
		calc:            calc,
		invoiceAttempts: order.DefaultInvoiceAttempts,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for OrderPlaced / OrderPaid
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the checkout metrics recorder
func (s *OrderService) SetMetrics(metrics CheckoutRecorder) {
	s.metrics = metrics
}

// SetInvoiceAttempts overrides how many invoice tokens checkout tries
func (s *OrderService) SetInvoiceAttempts(n int) {
	if n > 0 {
		s.invoiceAttempts = n
	}
}

// Checkout turns the session's cart into a pending order.
//
// The session lock is held for the whole settlement. Stock decrements and the
// order insert share one transaction; the cart is cleared only after commit.
func (s *OrderService) Checkout(ctx context.Context, sessionID string, customerID uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "checkout")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, sessionID,
		telemetry.SpanAttrCustomerID, customerID.String(),
	)

	start := time.Now()
	resp, err := s.checkout(ctx, sessionID, customerID)
	s.recordCheckout(ctx, err, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoice, resp.Invoice,
		telemetry.SpanAttrItemCount, resp.ItemCount,
		telemetry.SpanAttrAmount, resp.Total.String(),
	)
	return resp, nil
}

func (s *OrderService) checkout(ctx context.Context, sessionID string, customerID uuid.UUID) (*OrderResponse, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	if customerID == uuid.Nil {
		return nil, ErrMissingCustomer
	}

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, storageError(err)
	}
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}

	items := lineItemsFromCart(c)

	// Validate pricing before touching storage.
	totals, err := s.calc.Compute(c.PricingLines())
	if err != nil {
		return nil, err
	}

	o, err := s.settle(ctx, customerID, items)
	if err != nil {
		return nil, err
	}

	// The order is committed; a failed clear leaves a stale cart but must not
	// fail the checkout.
	if err := s.carts.Delete(context.WithoutCancel(ctx), sessionID); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.String("invoice", o.Invoice),
			zap.Error(err),
		)
	}

	s.publishEvents(ctx, o)

	s.logger.Info("order placed",
		zap.String("invoice", o.Invoice),
		zap.String("customer_id", customerID.String()),
		zap.Int("items", o.ItemCount()),
		zap.String("total", totals.Total.String()),
	)

	resp := ToOrderResponse(o, totals)
	return &resp, nil
}

// settle allocates an invoice and runs the settlement transaction. A unique
// violation on the invoice (lost race with another checkout) consumes one
// attempt and retries with a fresh token.
func (s *OrderService) settle(ctx context.Context, customerID uuid.UUID, items []order.LineItem) (*order.Order, error) {
	for attempt := 1; attempt <= s.invoiceAttempts; attempt++ {
		invoice, err := s.invoices.Generate()
		if err != nil {
			return nil, err
		}

		exists, err := s.orderRepo.ExistsByInvoice(ctx, invoice)
		if err != nil {
			return nil, storageError(err)
		}
		if exists {
			s.logger.Debug("invoice collision", zap.Int("attempt", attempt))
			continue
		}

		o, err := order.NewOrder(invoice, customerID, items)
		if err != nil {
			return nil, err
		}

		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, item := range o.LineItems {
				if _, err := repos.StockRepo().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			return repos.OrderRepo().Create(ctx, o)
		})
		if errors.Is(err, order.ErrDuplicateInvoice) {
			s.logger.Debug("invoice taken during commit", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, storageError(err)
		}
		return o, nil
	}

	return nil, order.ErrInvoiceGenerationExhausted
}

// MarkPaid moves a pending order to paid. A second call, or losing a race
// against another payer, fails with order.ErrInvalidTransition.
func (s *OrderService) MarkPaid(ctx context.Context, customerID uuid.UUID, invoice string) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "mark_paid")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoice, invoice,
		telemetry.SpanAttrCustomerID, customerID.String(),
	)

	o, err := s.markPaid(ctx, customerID, invoice)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return s.toResponse(o)
}

func (s *OrderService) markPaid(ctx context.Context, customerID uuid.UUID, invoice string) (*order.Order, error) {
	o, err := s.orderRepo.FindByInvoice(ctx, customerID, invoice)
	if err != nil {
		return nil, storageError(err)
	}

	if err := o.MarkPaid(); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, s.resolvePayConflict(ctx, customerID, invoice, err)
		}
		return nil, storageError(err)
	}

	s.publishEvents(ctx, o)

	s.logger.Info("order marked paid",
		zap.String("invoice", o.Invoice),
		zap.String("customer_id", customerID.String()),
	)
	return o, nil
}

// resolvePayConflict re-reads the order after a version conflict. If another
// request already paid it, the caller sees the same error a sequential second
// call would.
func (s *OrderService) resolvePayConflict(ctx context.Context, customerID uuid.UUID, invoice string, cause error) error {
	current, err := s.orderRepo.FindByInvoice(ctx, customerID, invoice)
	if err != nil {
		return storageError(err)
	}
	if current.IsPaid() {
		return order.ErrInvalidTransition.WithDetail("status", current.Status.String())
	}
	return cause
}

// GetOrder returns a customer's order with recomputed totals
func (s *OrderService) GetOrder(ctx context.Context, customerID uuid.UUID, invoice string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByInvoice(ctx, customerID, invoice)
	if err != nil {
		return nil, storageError(err)
	}
	return s.toResponse(o)
}

// ListOrders returns a page of the customer's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, customerID uuid.UUID, req ListOrdersRequest) ([]OrderListItemResponse, int64, error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize(20, 100)
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}

	orders, total, err := s.orderRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, 0, storageError(err)
	}

	items := make([]OrderListItemResponse, 0, len(orders))
	for i := range orders {
		totals, err := orders[i].Totals(s.calc)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ToOrderListItemResponse(&orders[i], totals))
	}
	return items, total, nil
}

func (s *OrderService) toResponse(o *order.Order) (*OrderResponse, error) {
	totals, err := o.Totals(s.calc)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o, totals)
	return &resp, nil
}

func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	defer o.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	for _, event := range o.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish order event",
				zap.String("event_type", event.EventType()),
				zap.String("invoice", o.Invoice),
				zap.Error(err),
			)
		}
	}
}

func (s *OrderService) recordCheckout(ctx context.Context, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	result := telemetry.CheckoutResultPlaced
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrEmptyCart):
		result = telemetry.CheckoutResultEmptyCart
	case errors.Is(err, catalog.ErrInsufficientStock):
		result = telemetry.CheckoutResultInsufficientStock
	default:
		result = telemetry.CheckoutResultFailed
	}
	s.metrics.RecordCheckout(ctx, result, d)
}

func lineItemsFromCart(c *cart.Cart) []order.LineItem {
	items := make([]order.LineItem, len(c.Lines))
	for i, l := range c.Lines {
		items[i] = order.LineItem{
			ProductID:       l.ProductID,
			Name:            l.Name,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			Quantity:        l.Quantity,
			Color:           l.Color,
		}
	}
	return items
}

// storageError keeps domain errors as they are and wraps anything else
func storageError(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.NewStorageUnavailable(err)
}
