package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors keep the code they were
// created with (PRODUCT_NOT_FOUND, EMPTY_CART, ...).
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBodyTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,
	"INVALID_INPUT":   http.StatusBadRequest,

	// Auth
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resources
	ErrCodeNotFound:        http.StatusNotFound,
	"PRODUCT_NOT_FOUND":    http.StatusNotFound,
	"BRAND_NOT_FOUND":      http.StatusNotFound,
	"CATEGORY_NOT_FOUND":   http.StatusNotFound,
	"LINE_NOT_FOUND":       http.StatusNotFound,
	"ORDER_NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"BRAND_IN_USE":         http.StatusConflict,
	"CATEGORY_IN_USE":      http.StatusConflict,

	// Cart and checkout
	"INVALID_SESSION":    http.StatusBadRequest,
	"INVALID_QUANTITY":   http.StatusBadRequest,
	"INVALID_LINE_ITEM":  http.StatusBadRequest,
	"EMPTY_CART":         http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,
	"CART_BUSY":          http.StatusConflict,
	"INVALID_TRANSITION": http.StatusConflict,
	"DUPLICATE_INVOICE":  http.StatusConflict,

	// Payment
	"PAYMENT_FAILED":      http.StatusPaymentRequired,
	"PAYMENT_UNAVAILABLE": http.StatusServiceUnavailable,

	// Infrastructure
	"INVOICE_GENERATION_EXHAUSTED": http.StatusServiceUnavailable,
	"STORAGE_UNAVAILABLE":          http.StatusServiceUnavailable,
	"RENDER_FAILED":                http.StatusInternalServerError,

	// Transport
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted INVALID_* codes come from domain constructors and map to 400,
// unlisted *_NOT_FOUND codes map to 404, anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
