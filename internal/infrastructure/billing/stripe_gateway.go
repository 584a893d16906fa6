package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// GatewayStripe is the gateway name reported in logs and metrics
const GatewayStripe = "stripe"

// StripeGateway charges orders with a confirmed Stripe PaymentIntent.
// Each (invoice, payment method) pair is one idempotent attempt.
type StripeGateway struct {
	config    *StripeConfig
	scale     int32
	customers sync.Map // uuid.UUID -> stripe customer id
	logger    *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe: configuration is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	unit, err := currency.ParseISO(strings.ToUpper(config.Currency))
	if err != nil {
		return nil, fmt.Errorf("stripe: unknown currency %q: %w", config.Currency, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	config.InitStripeClient()

	scale, _ := currency.Standard.Rounding(unit)
	return &StripeGateway{
		config: config,
		scale:  int32(scale),
		logger: logger,
	}, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return GatewayStripe
}

// Charge creates and confirms a PaymentIntent for the order total
func (g *StripeGateway) Charge(ctx context.Context, req orderapp.ChargeRequest) (*orderapp.ChargeResult, error) {
	amount := g.minorUnits(req.Amount)
	if amount <= 0 {
		return nil, fmt.Errorf("stripe: amount must be positive, got %s", req.Amount)
	}
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("stripe: payment method is required")
	}

	customerID, err := g.ensureCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(strings.ToLower(g.config.Currency)),
		Customer:      stripe.String(customerID),
		PaymentMethod: stripe.String(req.PaymentMethod),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("Order " + req.Invoice),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.SetIdempotencyKey(intentIdempotencyKey(req.Invoice, req.PaymentMethod))
	params.AddMetadata("invoice", req.Invoice)
	params.AddMetadata("customer_id", req.CustomerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Warn("Stripe payment intent failed",
			zap.String("invoice", req.Invoice),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("stripe: payment intent %s is %s", pi.ID, pi.Status)
	}

	g.logger.Info("Stripe payment captured",
		zap.String("invoice", req.Invoice),
		zap.String("payment_intent", pi.ID),
		zap.Int64("amount", amount))

	return &orderapp.ChargeResult{
		PaymentID: pi.ID,
		Status:    string(pi.Status),
	}, nil
}

// intentIdempotencyKey replays a resent charge but lets a declined order be
// retried with another payment method.
func intentIdempotencyKey(invoice, paymentMethod string) string {
	return "order-" + invoice + "-" + paymentMethod
}

// ensureCustomer returns the Stripe customer for the storefront customer,
// creating it on first use.
func (g *StripeGateway) ensureCustomer(ctx context.Context, req orderapp.ChargeRequest) (string, error) {
	if id, ok := g.customers.Load(req.CustomerID); ok {
		return id.(string), nil
	}

	params := &stripe.CustomerParams{}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	if req.Name != "" {
		params.Name = stripe.String(req.Name)
	}
	params.Context = ctx
	params.SetIdempotencyKey("customer-" + req.CustomerID.String())
	params.AddMetadata("customer_id", req.CustomerID.String())

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create customer: %w", err)
	}
	g.customers.Store(req.CustomerID, cust.ID)
	return cust.ID, nil
}

// minorUnits converts an amount to the currency's smallest unit
func (g *StripeGateway) minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(g.scale).Round(0).IntPart()
}

// IsDecline reports whether err is a card decline rather than a provider fault
func IsDecline(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Type == stripe.ErrorTypeCard
	}
	return false
}

// SandboxGateway approves every charge. It stands in for a real provider
// when Stripe is disabled.
type SandboxGateway struct{}

// Name returns the gateway name
func (SandboxGateway) Name() string {
	return "sandbox"
}

// Charge accepts any positive amount
func (SandboxGateway) Charge(_ context.Context, req orderapp.ChargeRequest) (*orderapp.ChargeResult, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("sandbox: amount must be positive, got %s", req.Amount)
	}
	return &orderapp.ChargeResult{
		PaymentID: "sandbox_" + req.Invoice,
		Status:    "succeeded",
	}, nil
}

var (
	_ orderapp.PaymentGateway = (*StripeGateway)(nil)
	_ orderapp.PaymentGateway = SandboxGateway{}
)
