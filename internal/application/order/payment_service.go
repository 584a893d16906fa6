package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ChargeRequest describes a single capture against a payment gateway
type ChargeRequest struct {
	// Invoice and PaymentMethod together key one idempotent attempt
	Invoice       string
	CustomerID    uuid.UUID
	Email         string
	Name          string
	PaymentMethod string
	Amount        decimal.Decimal
}

// ChargeResult is the gateway's acknowledgement of a capture
type ChargeResult struct {
	PaymentID string
	Status    string
}

// PaymentGateway captures order totals
type PaymentGateway interface {
	// Name identifies the gateway in logs and metrics
	Name() string
	// Charge captures the amount or returns an error; resending the same
	// invoice and payment method must not charge twice.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// PaymentService charges pending orders and marks them paid.
type PaymentService struct {
	orderRepo order.Repository
	orders    *OrderService
	gateway   PaymentGateway
	metrics   CheckoutRecorder
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(orderRepo order.Repository, orders *OrderService, gateway PaymentGateway, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		orderRepo: orderRepo,
		orders:    orders,
		gateway:   gateway,
		logger:    logger,
	}
}

// SetMetrics sets the payment metrics recorder
func (s *PaymentService) SetMetrics(metrics CheckoutRecorder) {
	s.metrics = metrics
}

// Pay charges the order total and moves the order to paid.
// A gateway failure leaves the order pending and returns order.ErrPaymentFailed.
// A zero total is marked paid without contacting the gateway.
func (s *PaymentService) Pay(ctx context.Context, customerID uuid.UUID, invoice string, req PayRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "pay")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoice, invoice,
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrPaymentGateway, s.gateway.Name(),
	)

	o, err := s.orderRepo.FindByInvoice(ctx, customerID, invoice)
	if err != nil {
		err = storageError(err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if o.IsPaid() {
		err := order.ErrInvalidTransition.WithDetail("status", o.Status.String())
		telemetry.RecordError(span, err)
		return nil, err
	}

	totals, err := o.Totals(s.orders.calc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, totals.Total.String())

	if totals.Total.IsZero() {
		return s.settleFree(ctx, span, customerID, invoice)
	}

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		Invoice:       o.Invoice,
		CustomerID:    customerID,
		Email:         req.Email,
		Name:          req.Name,
		PaymentMethod: req.PaymentMethod,
		Amount:        totals.Total,
	})
	if err != nil {
		s.recordPayment(ctx, telemetry.PaymentStatusFailed)
		s.logger.Warn("payment capture failed",
			zap.String("invoice", invoice),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err),
		)
		var domainErr *shared.DomainError
		if !errors.As(err, &domainErr) {
			err = order.ErrPaymentFailed.Wrap(err)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordPayment(ctx, telemetry.PaymentStatusSuccess)
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, result.PaymentID)

	paid, err := s.orders.MarkPaid(ctx, customerID, invoice)
	if err != nil {
		s.logger.Error("payment captured but order not marked paid",
			zap.String("invoice", invoice),
			zap.String("payment_id", result.PaymentID),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &PaymentResponse{
		Gateway:   s.gateway.Name(),
		PaymentID: result.PaymentID,
		Order:     *paid,
	}, nil
}

// settleFree marks a zero-total order paid; there is nothing to capture
func (s *PaymentService) settleFree(ctx context.Context, span trace.Span, customerID uuid.UUID, invoice string) (*PaymentResponse, error) {
	paid, err := s.orders.MarkPaid(ctx, customerID, invoice)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordPayment(ctx, telemetry.PaymentStatusSuccess)
	s.logger.Info("zero-total order settled without charge", zap.String("invoice", invoice))

	return &PaymentResponse{
		Gateway: s.gateway.Name(),
		Order:   *paid,
	}, nil
}

func (s *PaymentService) recordPayment(ctx context.Context, status telemetry.PaymentStatus) {
	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, s.gateway.Name(), status)
	}
}
