package billing

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrGatewayUnavailable is returned while the breaker rejects charges
var ErrGatewayUnavailable = shared.NewDomainError("PAYMENT_UNAVAILABLE", "Payment provider is temporarily unavailable")

// BreakerConfig tunes the payment circuit breaker
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
	// HalfOpenRequests is how many trial requests are let through when half-open
	HalfOpenRequests uint32
	// Interval resets the closed-state counters; zero never resets
	Interval time.Duration
}

// DefaultBreakerConfig returns the production breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
		Interval:            time.Minute,
	}
}

// BreakerGateway guards a PaymentGateway with a circuit breaker.
// Card declines and caller cancellations do not count as failures.
type BreakerGateway struct {
	next   orderapp.PaymentGateway
	cb     *gobreaker.CircuitBreaker[*orderapp.ChargeResult]
	logger *zap.Logger
}

// NewBreakerGateway wraps next in a circuit breaker
func NewBreakerGateway(next orderapp.PaymentGateway, cfg BreakerConfig, logger *zap.Logger) *BreakerGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultBreakerConfig()
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}

	g := &BreakerGateway{next: next, logger: logger}
	g.cb = gobreaker.NewCircuitBreaker[*orderapp.ChargeResult](gobreaker.Settings{
		Name:        "payment-" + next.Name(),
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				IsDecline(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Payment circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return g
}

// Name returns the wrapped gateway's name
func (g *BreakerGateway) Name() string {
	return g.next.Name()
}

// Charge forwards to the wrapped gateway unless the breaker is open
func (g *BreakerGateway) Charge(ctx context.Context, req orderapp.ChargeRequest) (*orderapp.ChargeResult, error) {
	result, err := g.cb.Execute(func() (*orderapp.ChargeResult, error) {
		return g.next.Charge(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrGatewayUnavailable.Wrap(err)
	}
	return result, err
}

// State returns the breaker state
func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}

var _ orderapp.PaymentGateway = (*BreakerGateway)(nil)
