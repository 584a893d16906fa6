package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	"github.com/storefront/backend/internal/infrastructure/persistence"
	infraprinting "github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "handler-test-secret-with-32-bytes!!"

// stubRenderer returns a fixed PDF instead of driving a browser
type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, req *infraprinting.RenderRequest) (*infraprinting.RenderResult, error) {
	return &infraprinting.RenderResult{PDFData: []byte("%PDF-1.7 " + req.Title), PageCount: 1}, nil
}

func (stubRenderer) Close() error { return nil }

// stubArchive pretends to upload and signs a fake link
type stubArchive struct{}

func (stubArchive) Store(_ context.Context, invoice string, _ []byte) (string, error) {
	return "invoices/" + invoice + ".pdf", nil
}

func (stubArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	return "https://archive.example.com/" + key, time.Now().Add(time.Hour), nil
}

// testEnv is the storefront API wired over sqlite and the in-memory cart
type testEnv struct {
	engine   *gin.Engine
	jwt      *auth.JWTService
	products *catalogapp.ProductService
	groups   *catalogapp.GroupService
	invoices *printingapp.InvoiceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "handler.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate())

	calc := pricing.NewDefaultCalculator()
	productRepo := persistence.NewGormProductRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	carts := cache.NewInMemoryCartStore(time.Hour)
	locker := cache.NewInMemorySessionLocker(time.Second)

	products := catalogapp.NewProductService(productRepo, brandRepo, categoryRepo, nil)
	groups := catalogapp.NewGroupService(brandRepo, categoryRepo)
	cartService := cartapp.NewCartService(carts, locker, productRepo, calc, nil)
	orders := orderapp.NewOrderService(
		persistence.NewGormTransactionScope(db.DB),
		orderRepo,
		carts,
		locker,
		order.NewRandomInvoiceGenerator(order.MinInvoiceBytes),
		calc,
		nil,
	)
	payments := orderapp.NewPaymentService(orderRepo, orders, billing.SandboxGateway{}, nil)

	tmpl, err := infraprinting.NewInvoiceTemplate("USD", "en-US")
	require.NoError(t, err)
	invoices := printingapp.NewInvoiceService(orderRepo, calc, tmpl, stubRenderer{}, printingapp.InvoiceOptions{StoreName: "Test Store"}, nil)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                testJWTSecret,
		AccessTokenExpiration: time.Hour,
		Issuer:                "storefront-test",
	})

	catalogHandler := NewCatalogHandler(products, groups)
	cartHandler := NewCartHandler(cartService)
	orderHandler := NewOrderHandler(orders, payments, invoices)
	healthHandler := NewHealthHandler("test", Dependency{Name: "database", Ping: db.Ping})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)

	api := engine.Group("/api/v1")
	api.Use(middleware.Session(config.CookieConfig{}), middleware.OptionalJWTAuthMiddleware(jwtService))

	catalogRoutes := api.Group("/catalog")
	catalogRoutes.GET("/products", catalogHandler.ListProducts)
	catalogRoutes.GET("/products/:id", catalogHandler.GetProduct)
	catalogRoutes.GET("/brands", catalogHandler.ListBrands)
	catalogRoutes.GET("/categories", catalogHandler.ListCategories)
	admin := catalogRoutes.Group("", middleware.JWTAuthMiddleware(jwtService), middleware.RequireAdmin())
	admin.POST("/products", catalogHandler.CreateProduct)
	admin.PUT("/products/:id", catalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", catalogHandler.DeleteProduct)
	admin.POST("/brands", catalogHandler.CreateBrand)
	admin.PUT("/brands/:id", catalogHandler.UpdateBrand)
	admin.DELETE("/brands/:id", catalogHandler.DeleteBrand)
	admin.POST("/categories", catalogHandler.CreateCategory)
	admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
	admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)

	api.GET("/cart", cartHandler.View)
	api.DELETE("/cart", cartHandler.Clear)
	api.POST("/cart/items", cartHandler.AddItem)
	api.PUT("/cart/items/:product_id", cartHandler.UpdateItem)
	api.DELETE("/cart/items/:product_id", cartHandler.RemoveItem)

	orderRoutes := api.Group("/orders", middleware.JWTAuthMiddleware(jwtService))
	orderRoutes.POST("/checkout", orderHandler.Checkout)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/:invoice", orderHandler.Get)
	orderRoutes.POST("/:invoice/pay", orderHandler.Pay)
	orderRoutes.POST("/:invoice/mark-paid", middleware.RequireAdmin(), orderHandler.MarkPaid)
	orderRoutes.GET("/:invoice/invoice.pdf", orderHandler.Invoice)

	return &testEnv{
		engine:   engine,
		jwt:      jwtService,
		products: products,
		groups:   groups,
		invoices: invoices,
	}
}

// seedProduct creates a brand, a category and a product with the given stock
func (e *testEnv) seedProduct(t *testing.T, name, price string, discount, stock int) *catalogapp.ProductResponse {
	t.Helper()
	ctx := context.Background()

	brand, err := e.groups.CreateBrand(ctx, catalogapp.CreateGroupRequest{Name: "Brand " + uuid.NewString()[:8]})
	require.NoError(t, err)
	category, err := e.groups.CreateCategory(ctx, catalogapp.CreateGroupRequest{Name: "Cat " + uuid.NewString()[:8]})
	require.NoError(t, err)

	product, err := e.products.Create(ctx, catalogapp.CreateProductRequest{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Discount:   discount,
		Stock:      stock,
		Colors:     []string{"red", "blue"},
		BrandID:    brand.ID,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	return product
}

func (e *testEnv) token(t *testing.T, customerID uuid.UUID, admin bool) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(auth.TokenInput{CustomerID: customerID, Admin: admin})
	require.NoError(t, err)
	return tok.Token
}

// request describes one call against the test API
type request struct {
	method  string
	path    string
	body    any
	session string
	token   string
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.session != "" {
		req.Header.Set(middleware.HeaderSessionID, r.session)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// envelope is dto.Response with the payload kept raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
	return env
}
