package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/storefront/backend/internal/application/billing"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	printingapp "github.com/storefront/backend/internal/application/printing"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/billing"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	infraprinting "github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/storefront/backend/docs"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Catalog browsing, session carts and checkout for the storefront.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.FromAppConfig(cfg.Log, cfg.App.Env))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrateSchema(db, cfg.Database, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	dbMetrics, err := telemetry.InstrumentDB(ctx, db.DB, providers.Meter.Meter("storefront.db"),
		telemetry.DBConfigFrom(cfg.Telemetry, cfg.Database.Driver), log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if dbMetrics != nil {
		if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics.StartPoolStatsCollection(ctx, sqlDB)
		}
		defer dbMetrics.Stop()
	}

	// Cart backend
	cartBackend, err := cache.NewCartBackendFactory(cfg.Cart, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateBackend()
	if err != nil {
		log.Fatal("Failed to create cart backend", zap.Error(err))
	}
	defer func() {
		if err := cartBackend.Close(); err != nil {
			log.Error("Error closing cart backend", zap.Error(err))
		}
	}()

	// Pricing and checkout
	calc, err := pricing.NewCalculator(cfg.Checkout.TaxRate)
	if err != nil {
		log.Fatal("Invalid tax rate", zap.Error(err))
	}
	invoiceBytes := cfg.Checkout.InvoiceBytes
	if invoiceBytes < order.MinInvoiceBytes {
		invoiceBytes = order.MinInvoiceBytes
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Business metrics
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           providers.Meter.Meter("storefront.business"),
		Logger:          log,
		CatalogProvider: telemetry.NewGormCatalogMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	if providers.Meter.IsEnabled() {
		businessMetrics.StartPeriodicCollection(ctx, time.Minute)
	}
	defer businessMetrics.Stop()

	// Application services
	productService := catalogapp.NewProductService(productRepo, brandRepo, categoryRepo, log)
	groupService := catalogapp.NewGroupService(brandRepo, categoryRepo)
	cartService := cartapp.NewCartService(cartBackend.Store, cartBackend.Locker, productRepo, calc, log)
	orderService := orderapp.NewOrderService(
		persistence.NewGormTransactionScope(db.DB),
		orderRepo,
		cartBackend.Store,
		cartBackend.Locker,
		order.NewRandomInvoiceGenerator(invoiceBytes),
		calc,
		log,
	)
	orderService.SetInvoiceAttempts(cfg.Checkout.InvoiceAttempts)
	orderService.SetMetrics(businessMetrics)

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(orderapp.NewOrderAuditHandler(log))
	eventBus.Subscribe(orderapp.NewOrderMetricsHandler(businessMetrics, calc, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	orderService.SetEventPublisher(eventBus)

	// Payments
	paymentService := orderapp.NewPaymentService(orderRepo, orderService, paymentGateway(cfg.Stripe, log), log)
	paymentService.SetMetrics(businessMetrics)

	var webhookService *billingapp.StripeWebhookService
	if cfg.Stripe.Enabled && cfg.Stripe.WebhookSecret != "" {
		webhookService = billingapp.NewStripeWebhookService(cfg.Stripe.WebhookSecret, orderService, log)
	}

	// Invoices
	invoiceService, closeInvoices, err := newInvoiceService(ctx, cfg, orderRepo, calc, log)
	if err != nil {
		log.Fatal("Failed to set up invoice printing", zap.Error(err))
	}
	defer closeInvoices()

	// HTTP
	jwtService := auth.NewJWTService(cfg.JWT)

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRequests > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		log.Info("Checkout rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	dependencies := []handler.Dependency{
		{Name: "database", Ping: db.Ping},
		{Name: "cart_store", Ping: cartBackend.Ping},
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        providers.Tracer.IsEnabled(),
		MeterProvider:  providers.Meter,
		CORS:           corsConfig,
		Security:       middleware.DefaultSecurityConfig(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	router.Mount(engine, router.Handlers{
		Catalog: handler.NewCatalogHandler(productService, groupService),
		Cart:    handler.NewCartHandler(cartService),
		Orders:  handler.NewOrderHandler(orderService, paymentService, invoiceService),
		Health:  handler.NewHealthHandler(version, dependencies...),
		// nil service answers 404 until a webhook secret is configured
		Webhooks: handler.NewWebhookHandler(webhookService),
	}, router.Options{
		JWT:         jwtService,
		Cookie:      cfg.Cookie,
		RateLimiter: rateLimiter,
		Swagger:     cfg.Swagger,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema brings the schema up to date: sqlite through GORM's
// AutoMigrate, postgres through the embedded SQL migrations.
func migrateSchema(db *persistence.Database, cfg config.DatabaseConfig, log *zap.Logger) error {
	if cfg.Driver == config.DriverSQLite {
		if !cfg.AutoMigrate {
			return nil
		}
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close sqlDB too, which GORM still owns.
	return m.Up()
}

// paymentGateway picks Stripe when configured and the sandbox otherwise,
// behind a circuit breaker either way
func paymentGateway(cfg config.StripeConfig, log *zap.Logger) orderapp.PaymentGateway {
	var gateway orderapp.PaymentGateway = billing.SandboxGateway{}
	if cfg.Enabled {
		stripeGateway, err := billing.NewStripeGateway(&billing.StripeConfig{
			SecretKey:  cfg.SecretKey,
			IsTestMode: cfg.TestMode,
			Currency:   cfg.Currency,
		}, log)
		if err != nil {
			log.Fatal("Failed to configure Stripe", zap.Error(err))
		}
		gateway = stripeGateway
	} else {
		log.Warn("Stripe disabled; online payments use the sandbox gateway")
	}

	return billing.NewBreakerGateway(gateway, billing.BreakerConfig{
		ConsecutiveFailures: cfg.BreakerFailures,
		OpenTimeout:         cfg.BreakerOpenTimeout,
		Interval:            time.Minute,
	}, log)
}

// newInvoiceService wires the chromedp renderer and, when storage is
// enabled, the S3 archive
func newInvoiceService(
	ctx context.Context,
	cfg *config.Config,
	orderRepo order.Repository,
	calc *pricing.Calculator,
	log *zap.Logger,
) (*printingapp.InvoiceService, func(), error) {
	tmpl, err := infraprinting.NewInvoiceTemplate(cfg.Printing.Currency, cfg.Printing.Locale)
	if err != nil {
		return nil, nil, err
	}

	renderer, err := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
		DefaultTimeout: cfg.Printing.Timeout,
		RemoteURL:      cfg.Printing.ChromeURL,
		NoSandbox:      cfg.Printing.NoSandbox,
		Logger:         log,
	})
	if err != nil {
		return nil, nil, err
	}
	closeRenderer := func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}

	svc := printingapp.NewInvoiceService(orderRepo, calc, tmpl, renderer, printingapp.InvoiceOptions{
		StoreName: cfg.Printing.StoreName,
		PaperSize: infraprinting.ParsePaperSize(cfg.Printing.PaperSize),
		Timeout:   cfg.Printing.Timeout,
	}, log)

	if !cfg.Storage.Enabled {
		return svc, closeRenderer, nil
	}

	archive, err := storage.NewS3InvoiceArchive(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		closeRenderer()
		return nil, nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		log.Warn("Invoice bucket check failed; archiving may fail", zap.Error(err))
	}
	svc.SetArchive(archive)
	log.Info("Invoice archive enabled", zap.String("bucket", archive.Bucket()))

	return svc, closeRenderer, nil
}
