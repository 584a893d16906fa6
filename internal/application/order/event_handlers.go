package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderAuditHandler writes an audit log line for every order event.
type OrderAuditHandler struct {
	logger *zap.Logger
}

// NewOrderAuditHandler creates a new OrderAuditHandler
func NewOrderAuditHandler(logger *zap.Logger) *OrderAuditHandler {
	return &OrderAuditHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderAuditHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, order.EventTypeOrderPaid}
}

// Handle logs the event with its order identifiers
func (h *OrderAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		h.logger.Info("order placed event",
			zap.String("event_id", e.EventID().String()),
			zap.String("order_id", e.OrderID.String()),
			zap.String("invoice", e.Invoice),
			zap.String("customer_id", e.CustomerID.String()),
			zap.Int("lines", len(e.Items)),
		)
	case *order.OrderPaidEvent:
		h.logger.Info("order paid event",
			zap.String("event_id", e.EventID().String()),
			zap.String("order_id", e.OrderID.String()),
			zap.String("invoice", e.Invoice),
			zap.Time("paid_at", e.PaidAt),
		)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

// OrderMetricsRecorder receives order measurements.
// *telemetry.BusinessMetrics satisfies it.
type OrderMetricsRecorder interface {
	RecordOrderAmount(ctx context.Context, amount decimal.Decimal)
	RecordOrderPaid(ctx context.Context)
}

// OrderMetricsHandler feeds order events into business metrics.
type OrderMetricsHandler struct {
	metrics OrderMetricsRecorder
	calc    *pricing.Calculator
	logger  *zap.Logger
}

// NewOrderMetricsHandler creates a new OrderMetricsHandler
func NewOrderMetricsHandler(metrics OrderMetricsRecorder, calc *pricing.Calculator, logger *zap.Logger) *OrderMetricsHandler {
	return &OrderMetricsHandler{
		metrics: metrics,
		calc:    calc,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderMetricsHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, order.EventTypeOrderPaid}
}

// Handle records the order total on placement and a paid count on payment
func (h *OrderMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		lines := make([]pricing.Line, len(e.Items))
		for i, item := range e.Items {
			lines[i] = item.PricingLine()
		}
		totals, err := h.calc.Compute(lines)
		if err != nil {
			h.logger.Warn("cannot price placed order for metrics",
				zap.String("invoice", e.Invoice),
				zap.Error(err),
			)
			return err
		}
		h.metrics.RecordOrderAmount(ctx, totals.Total)
	case *order.OrderPaidEvent:
		h.metrics.RecordOrderPaid(ctx)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}
