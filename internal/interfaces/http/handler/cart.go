package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CartHandler handles the session cart endpoints. The session id is
// resolved by the Session middleware.
type CartHandler struct {
	BaseHandler
	cartService *cartapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// View godoc
// @ID           viewCart
// @Summary      View the cart
// @Description  Returns the session cart with its lines and totals
// @Tags         cart
// @Produce      json
// @Param        X-Session-ID header string false "Session ID (falls back to the session cookie)"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /cart [get]
func (h *CartHandler) View(c *gin.Context) {
	resp, err := h.cartService.View(c.Request.Context(), getSessionID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem godoc
// @ID           addCartItem
// @Summary      Add a product to the cart
// @Description  Adds a new line (201) or merges into the existing line for the product (200).
// @Description  The outcome field tells which happened.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Session-ID header string false "Session ID (falls back to the session cookie)"
// @Param        request body cartapp.AddItemRequest true "Item"
// @Success      201 {object} APIResponse[cartapp.AddItemResponse]
// @Success      200 {object} APIResponse[cartapp.AddItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.cartService.Add(c.Request.Context(), getSessionID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if resp.Outcome == cart.AddOutcomeAdded {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

// UpdateItem godoc
// @ID           updateCartItem
// @Summary      Change a cart line
// @Description  Replaces quantity and color of the line for the product
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Session-ID header string false "Session ID (falls back to the session cookie)"
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body cartapp.UpdateItemRequest true "Line changes"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /cart/items/{product_id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "product_id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req cartapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.cartService.Update(c.Request.Context(), getSessionID(c), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem godoc
// @ID           removeCartItem
// @Summary      Remove a cart line
// @Tags         cart
// @Param        X-Session-ID header string false "Session ID (falls back to the session cookie)"
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "product_id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), getSessionID(c), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Clear godoc
// @ID           clearCart
// @Summary      Empty the cart
// @Tags         cart
// @Param        X-Session-ID header string false "Session ID (falls back to the session cookie)"
// @Success      204
// @Failure      503 {object} ErrorResponse
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), getSessionID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
