// Package billing reconciles storefront orders with payment provider
// notifications.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned when a payload fails signature verification
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// OrderPayer moves an order to paid
type OrderPayer interface {
	MarkPaid(ctx context.Context, customerID uuid.UUID, invoice string) (*orderapp.OrderResponse, error)
}

// StripeWebhookService handles Stripe webhook events. A PaymentIntent that
// succeeds outside the synchronous Pay call (3-D Secure, delayed capture)
// still marks its order paid.
type StripeWebhookService struct {
	secret string
	orders OrderPayer
	logger *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(secret string, orders OrderPayer, logger *zap.Logger) *StripeWebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeWebhookService{
		secret: secret,
		orders: orders,
		logger: logger.Named("stripe_webhook"),
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and applies a Stripe webhook event.
// Events that cannot be matched to an order are acknowledged so Stripe
// stops retrying them.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.secret)
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, ErrInvalidSignature.Wrap(err)
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		result.Message, err = s.handlePaymentSucceeded(ctx, event)
	case stripe.EventTypePaymentIntentPaymentFailed:
		result.Message, err = s.handlePaymentFailed(event)
	default:
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		result.Processed = false
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (s *StripeWebhookService) handlePaymentSucceeded(ctx context.Context, event stripe.Event) (string, error) {
	pi, customerID, invoice, err := decodeIntent(event)
	if err != nil {
		return "", err
	}
	if invoice == "" || customerID == uuid.Nil {
		s.logger.Warn("Payment intent carries no order reference",
			zap.String("payment_intent", pi.ID))
		return "No order reference", nil
	}

	_, err = s.orders.MarkPaid(ctx, customerID, invoice)
	switch {
	case err == nil:
		s.logger.Info("Order paid from webhook",
			zap.String("invoice", invoice),
			zap.String("payment_intent", pi.ID))
		return "Order marked paid", nil
	case errors.Is(err, order.ErrInvalidTransition):
		return "Order already paid", nil
	case errors.Is(err, order.ErrOrderNotFound):
		s.logger.Warn("Order not found for payment intent",
			zap.String("invoice", invoice),
			zap.String("payment_intent", pi.ID))
		return "Order not found", nil
	default:
		return "", err
	}
}

func (s *StripeWebhookService) handlePaymentFailed(event stripe.Event) (string, error) {
	pi, _, invoice, err := decodeIntent(event)
	if err != nil {
		return "", err
	}

	reason := ""
	if pi.LastPaymentError != nil {
		reason = pi.LastPaymentError.Msg
	}
	s.logger.Warn("Payment intent failed",
		zap.String("invoice", invoice),
		zap.String("payment_intent", pi.ID),
		zap.String("reason", reason))
	return "Order left pending", nil
}

// decodeIntent reads the PaymentIntent and the order reference the Stripe
// gateway stored in its metadata
func decodeIntent(event stripe.Event) (*stripe.PaymentIntent, uuid.UUID, string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, uuid.Nil, "", fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	customerID, err := uuid.Parse(pi.Metadata["customer_id"])
	if err != nil {
		customerID = uuid.Nil
	}
	return &pi, customerID, pi.Metadata["invoice"], nil
}
