package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// EngineConfig configures the global middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	ServiceName    string
	Tracing        bool
	MeterProvider  *telemetry.MeterProvider
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	TrustedProxies []string
}

// NewEngine builds a gin engine with the storefront middleware stack.
// Order matters: the request ID must exist before the access log, and the
// span enricher needs the span started by the tracing middleware.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.Tracing,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Enabled:       cfg.MeterProvider != nil && cfg.MeterProvider.IsEnabled(),
	}))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.SecureWithConfig(cfg.Security))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	return engine
}

// Handlers are the HTTP handlers the storefront API mounts
type Handlers struct {
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Orders  *handler.OrderHandler
	Health  *handler.HealthHandler
	// Webhooks is optional; nil leaves the provider callbacks unmounted
	Webhooks *handler.WebhookHandler
}

// Options configure route-level middleware
type Options struct {
	JWT    *auth.JWTService
	Cookie config.CookieConfig
	// RateLimiter throttles checkout and payment; nil leaves them open
	RateLimiter *middleware.RateLimiter
	Swagger     config.SwaggerConfig
}

// Mount registers health checks, API docs and the versioned storefront API
// on engine.
func Mount(engine *gin.Engine, h Handlers, opts Options) *Router {
	engine.GET("/health", h.Health.Health)
	engine.GET("/ready", h.Health.Ready)
	engine.GET("/swagger/*any", middleware.SwaggerProtection(opts.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine, WithAPIVersion("v1")).
		Use(middleware.Session(opts.Cookie), middleware.OptionalJWTAuthMiddleware(opts.JWT))

	r.Register(CatalogRoutes(h.Catalog, opts.JWT)).
		Register(CartRoutes(h.Cart)).
		Register(OrderRoutes(h.Orders, opts.JWT, opts.RateLimiter))
	if h.Webhooks != nil {
		r.Register(PaymentRoutes(h.Webhooks))
	}
	r.Setup()
	return r
}

// CatalogRoutes serves the public catalog and its admin writes
func CatalogRoutes(h *handler.CatalogHandler, jwt *auth.JWTService) *DomainGroup {
	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.GET("/products", h.ListProducts)
	catalog.GET("/products/:id", h.GetProduct)
	catalog.GET("/brands", h.ListBrands)
	catalog.GET("/categories", h.ListCategories)

	admin := catalog.Group("catalog-admin", "").
		Use(middleware.JWTAuthMiddleware(jwt), middleware.RequireAdmin())
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/brands", h.CreateBrand)
	admin.PUT("/brands/:id", h.UpdateBrand)
	admin.DELETE("/brands/:id", h.DeleteBrand)
	admin.POST("/categories", h.CreateCategory)
	admin.PUT("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)

	return catalog
}

// CartRoutes serves the session cart. No login is needed; the session
// middleware identifies the cart.
func CartRoutes(h *handler.CartHandler) *DomainGroup {
	cart := NewDomainGroup("cart", "/cart")
	cart.GET("", h.View)
	cart.DELETE("", h.Clear)
	cart.POST("/items", h.AddItem)
	cart.PUT("/items/:product_id", h.UpdateItem)
	cart.DELETE("/items/:product_id", h.RemoveItem)
	return cart
}

// OrderRoutes serves checkout and the customer's orders
func OrderRoutes(h *handler.OrderHandler, jwt *auth.JWTService, limiter *middleware.RateLimiter) *DomainGroup {
	orders := NewDomainGroup("orders", "/orders").
		Use(middleware.JWTAuthMiddleware(jwt))

	throttle := []gin.HandlerFunc{}
	if limiter != nil {
		throttle = append(throttle, middleware.RateLimit(limiter))
	}

	orders.POST("/checkout", append(throttle, h.Checkout)...)
	orders.GET("", h.List)
	orders.GET("/:invoice", h.Get)
	orders.POST("/:invoice/pay", append(throttle, h.Pay)...)
	orders.POST("/:invoice/mark-paid", middleware.RequireAdmin(), h.MarkPaid)
	orders.GET("/:invoice/invoice.pdf", h.Invoice)
	return orders
}

// PaymentRoutes serves payment provider callbacks. Providers authenticate
// by signature, not by customer token.
func PaymentRoutes(h *handler.WebhookHandler) *DomainGroup {
	payments := NewDomainGroup("payments", "/payments")
	payments.POST("/stripe/webhook", h.Stripe)
	return payments
}
