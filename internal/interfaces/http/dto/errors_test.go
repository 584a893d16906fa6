package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{"PRODUCT_NOT_FOUND", http.StatusNotFound},
		{"LINE_NOT_FOUND", http.StatusNotFound},
		{"ORDER_NOT_FOUND", http.StatusNotFound},
		{"INVALID_QUANTITY", http.StatusBadRequest},
		{"INVALID_LINE_ITEM", http.StatusBadRequest},
		{"EMPTY_CART", http.StatusUnprocessableEntity},
		{"INSUFFICIENT_STOCK", http.StatusUnprocessableEntity},
		{"INVOICE_GENERATION_EXHAUSTED", http.StatusServiceUnavailable},
		{"INVALID_TRANSITION", http.StatusConflict},
		{"STORAGE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"CART_BUSY", http.StatusConflict},
		{"PAYMENT_FAILED", http.StatusPaymentRequired},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"BRAND_IN_USE", http.StatusConflict},
		{"CATEGORY_IN_USE", http.StatusConflict},
		// constructor codes fall back by shape
		{"INVALID_PRICE", http.StatusBadRequest},
		{"COUPON_NOT_FOUND", http.StatusNotFound},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 17, 2, 8)
	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(17), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}

func TestErrorResponses_JSON(t *testing.T) {
	t.Run("domain details", func(t *testing.T) {
		resp := NewDomainErrorResponse("INSUFFICIENT_STOCK", "Insufficient stock available", "req-1",
			map[string]any{"product_id": 7})
		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": false,
			"error": {
				"code": "INSUFFICIENT_STOCK",
				"message": "Insufficient stock available",
				"request_id": "req-1",
				"details": {"product_id": 7}
			}
		}`, string(raw))
	})

	t.Run("no details omitted", func(t *testing.T) {
		raw, err := json.Marshal(NewDomainErrorResponse("EMPTY_CART", "The cart is empty", "", nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":{"code":"EMPTY_CART","message":"The cart is empty"}}`, string(raw))
	})

	t.Run("validation", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
			{Field: "quantity", Message: "quantity must be at least 1", Tag: "min"},
		})
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		details, ok := resp.Error.Details.([]ValidationDetail)
		require.True(t, ok)
		assert.Equal(t, "quantity", details[0].Field)
	})
}
