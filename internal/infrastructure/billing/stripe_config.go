package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for Stripe integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// IsTestMode indicates if using Stripe test mode
	IsTestMode bool `json:"is_test_mode" mapstructure:"is_test_mode"`

	// Currency is the ISO currency code charged for orders (e.g. "usd")
	Currency string `json:"currency" mapstructure:"currency"`

	// WebhookSecret is the signing secret for webhook endpoints (whsec_xxx)
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret"`
}

// DefaultStripeConfig returns a default configuration for development/testing
func DefaultStripeConfig() *StripeConfig {
	return &StripeConfig{
		IsTestMode: true,
		Currency:   "usd",
	}
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.IsTestMode && !strings.HasPrefix(c.SecretKey, "sk_test") {
		return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
	}
	if !c.IsTestMode && !strings.HasPrefix(c.SecretKey, "sk_live") {
		return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("stripe: currency must be a three-letter ISO code")
	}
	return nil
}

// InitStripeClient initializes the Stripe client with the configured API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
