package testutil

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)
	mockDB.ExpectationsWereMet(t)
}

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Context)
	assert.NotNil(t, tc.Recorder)
	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContext_Identity(t *testing.T) {
	tc := NewTestContext(t)
	customerID := TestCustomerID()

	tc.SetRequestID("req-1")
	tc.SetSessionID("sess-1")
	tc.SetCustomer(customerID, true)
	tc.SetHeader("X-Test", "yes")

	assert.Equal(t, "req-1", tc.Context.GetString(logger.GinRequestIDKey))
	assert.Equal(t, "sess-1", tc.Context.GetString(logger.GinSessionIDKey))
	assert.Equal(t, customerID.String(), tc.Context.GetString(middleware.JWTCustomerIDKey))
	claims, ok := tc.Context.Get(middleware.JWTClaimsKey)
	require.True(t, ok)
	assert.True(t, claims.(*auth.Claims).Admin)
	assert.Equal(t, "yes", tc.Context.Request.Header.Get("X-Test"))
}

func TestTestContext_Response(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.String(http.StatusTeapot, "short and stout")

	assert.Equal(t, http.StatusTeapot, tc.ResponseCode())
	assert.Equal(t, "short and stout", string(tc.ResponseBody()))
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
}

func TestWaitForCondition(t *testing.T) {
	t.Run("condition met", func(t *testing.T) {
		var counter atomic.Int32
		go func() {
			time.Sleep(20 * time.Millisecond)
			counter.Store(1)
		}()

		assert.True(t, WaitForCondition(func() bool { return counter.Load() == 1 }, time.Second, 5*time.Millisecond))
	})

	t.Run("condition not met within timeout", func(t *testing.T) {
		assert.False(t, WaitForCondition(func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond))
	})
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond)
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, 10*time.Millisecond)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestDo(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		require.NoError(t, c.ShouldBindJSON(&body))
		body["session"] = c.GetHeader(middleware.HeaderSessionID)
		body["auth"] = c.GetHeader(middleware.AuthHeaderKey)
		c.JSON(http.StatusOK, dto.Response{Success: true, Data: body})
	})
	engine.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Response{Error: &dto.ErrorInfo{Code: "PRODUCT_NOT_FOUND", Message: "product not found"}})
	})

	w := Do(t, engine, APIRequest{
		Method:    http.MethodPost,
		Path:      "/echo",
		Body:      map[string]any{"sku": "SKU-1"},
		SessionID: "sess-1",
		Token:     "tok",
	})
	data := DecodeData[map[string]string](t, w)
	assert.Equal(t, "SKU-1", data["sku"])
	assert.Equal(t, "sess-1", data["session"])
	assert.Equal(t, "Bearer tok", data["auth"])

	w = Do(t, engine, APIRequest{Path: "/missing"})
	env := RequireErrorCode(t, w, http.StatusNotFound, "PRODUCT_NOT_FOUND")
	assert.Equal(t, "product not found", env.Error.Message)
}
