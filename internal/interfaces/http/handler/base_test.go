package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestContext returns a gin context over a recorder with a request set
func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestGetCustomerID(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		c, _ := newTestContext()
		_, err := getCustomerID(c)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, dto.ErrCodeUnauthorized, domainErr.Code)
	})

	t.Run("from claims", func(t *testing.T) {
		c, _ := newTestContext()
		id := uuid.New()
		c.Set(middleware.JWTClaimsKey, &auth.Claims{CustomerID: id.String()})

		got, err := getCustomerID(c)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"item1", "item2"}, 17, 2, 8)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(17), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.DELETE("/test", func(c *gin.Context) {
		h.NoContent(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/test", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		call       func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"BadRequest", func(c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"InternalError", func(c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set(logger.GinRequestIDKey, "req-1")
			tt.call(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}
	productID := uuid.New()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails bool
	}{
		{"product not found", catalog.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND", false},
		{"line not found", cart.ErrLineNotFound, http.StatusNotFound, "LINE_NOT_FOUND", false},
		{"invalid quantity", cart.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY", false},
		{"empty cart", cart.ErrEmptyCart, http.StatusUnprocessableEntity, "EMPTY_CART", false},
		{"insufficient stock", catalog.NewInsufficientStockError(productID), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", true},
		{"invoice exhausted", order.ErrInvoiceGenerationExhausted, http.StatusServiceUnavailable, "INVOICE_GENERATION_EXHAUSTED", false},
		{"order not found", order.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND", false},
		{"invalid transition", order.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", false},
		{"storage", shared.NewStorageUnavailable(errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", false},
		{"payment failed", order.ErrPaymentFailed, http.StatusPaymentRequired, "PAYMENT_FAILED", false},
		{"wrapped domain error", fmt.Errorf("checkout: %w", cart.ErrEmptyCart), http.StatusUnprocessableEntity, "EMPTY_CART", false},
		{"unknown invalid code", shared.NewDomainError("INVALID_COLOR", "bad color"), http.StatusBadRequest, "INVALID_COLOR", false},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantDetails {
				details, ok := resp.Error.Details.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, productID.String(), details["product_id"])
			} else {
				assert.Nil(t, resp.Error.Details)
			}
		})
	}
}

func TestBaseHandlerHandleErrorHidesCause(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "An unexpected error occurred")
}

func TestBaseHandlerHandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.Bytes())
}
