// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides storefront business metrics.
// It tracks carts, checkouts, payments and catalog health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	cartLineTotal     *Counter
	checkoutTotal     *Counter
	orderAmountTotal  *Counter
	orderPaidTotal    *Counter
	paymentTotal      *Counter
	checkoutDuration  *Histogram
	outOfStockGauge   *Gauge
	inStockUnitsGauge *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	catalogProvider CatalogMetricsProvider
}

// CatalogMetricsProvider provides catalog data for periodic metrics collection.
// The telemetry layer queries stock levels through it without depending on
// the catalog domain.
type CatalogMetricsProvider interface {
	// CountOutOfStock returns the number of products with zero stock
	CountOutOfStock(ctx context.Context) (int64, error)

	// SumStock returns the total units on hand across all products
	SumStock(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CatalogProvider CatalogMetricsProvider
}

// CheckoutResult labels the outcome of a checkout attempt.
type CheckoutResult string

const (
	CheckoutResultPlaced            CheckoutResult = "placed"
	CheckoutResultEmptyCart         CheckoutResult = "empty_cart"
	CheckoutResultInsufficientStock CheckoutResult = "insufficient_stock"
	CheckoutResultFailed            CheckoutResult = "failed"
)

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		catalogProvider: cfg.CatalogProvider,
	}

	var err error

	bm.cartLineTotal, err = NewCounter(cfg.Meter,
		"storefront_cart_line_added_total",
		"Total number of add-to-cart operations",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	bm.checkoutTotal, err = NewCounter(cfg.Meter,
		"storefront_checkout_total",
		"Total number of checkout attempts by result",
		"{checkouts}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(cfg.Meter,
		"storefront_order_amount_total",
		"Total placed order amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderPaidTotal, err = NewCounter(cfg.Meter,
		"storefront_order_paid_total",
		"Total number of orders marked paid",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentTotal, err = NewCounter(cfg.Meter,
		"storefront_payment_total",
		"Total number of gateway charges",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.checkoutDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "storefront_checkout_duration_seconds",
		Description: "Duration of checkout settlement",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.outOfStockGauge, err = NewGauge(cfg.Meter,
		"storefront_products_out_of_stock",
		"Number of products with no stock left",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	bm.inStockUnitsGauge, err = NewGauge(cfg.Meter,
		"storefront_stock_units",
		"Total units on hand across the catalog",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Cart and Checkout Metrics
// =============================================================================

// RecordCartLine records an add-to-cart call and whether it merged.
func (bm *BusinessMetrics) RecordCartLine(ctx context.Context, outcome string) {
	bm.cartLineTotal.Inc(ctx, AttrCartOutcome.String(outcome))
}

// RecordCheckout records a checkout attempt and how long it took.
func (bm *BusinessMetrics) RecordCheckout(ctx context.Context, result CheckoutResult, d time.Duration) {
	bm.checkoutTotal.Inc(ctx, AttrCheckoutResult.String(string(result)))
	bm.checkoutDuration.RecordDuration(ctx, d, AttrCheckoutResult.String(string(result)))
}

// RecordOrderAmount records the order total in cents.
func (bm *BusinessMetrics) RecordOrderAmount(ctx context.Context, amount decimal.Decimal) {
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.orderAmountTotal.Add(ctx, cents)
}

// RecordOrderPaid records an order moving to paid.
func (bm *BusinessMetrics) RecordOrderPaid(ctx context.Context) {
	bm.orderPaidTotal.Inc(ctx)
}

// RecordPayment records a gateway charge.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, gateway string, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrPaymentGateway.String(gateway),
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Catalog Metrics
// =============================================================================

// RecordOutOfStock records the number of sold-out products.
func (bm *BusinessMetrics) RecordOutOfStock(ctx context.Context, count int64) {
	bm.outOfStockGauge.Record(ctx, count)
}

// RecordStockUnits records the total units on hand.
func (bm *BusinessMetrics) RecordStockUnits(ctx context.Context, units int64) {
	bm.inStockUnitsGauge.Record(ctx, units)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics
// (default interval: 5 minutes). It does not block; use Stop to end it.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectCatalogMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectCatalogMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectCatalogMetrics(ctx context.Context) {
	if bm.catalogProvider == nil {
		bm.logger.Debug("No catalog provider configured, skipping catalog metrics collection")
		return
	}

	outOfStock, err := bm.catalogProvider.CountOutOfStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count out-of-stock products", zap.Error(err))
	} else {
		bm.RecordOutOfStock(ctx, outOfStock)
	}

	units, err := bm.catalogProvider.SumStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to sum stock units", zap.Error(err))
	} else {
		bm.RecordStockUnits(ctx, units)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
