package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	billingapp "github.com/storefront/backend/internal/application/billing"
)

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment provider callbacks
type WebhookHandler struct {
	BaseHandler
	stripeService *billingapp.StripeWebhookService
}

// NewWebhookHandler creates a new WebhookHandler. A nil service answers 404.
func NewWebhookHandler(stripeService *billingapp.StripeWebhookService) *WebhookHandler {
	return &WebhookHandler{stripeService: stripeService}
}

// Stripe godoc
// @ID           stripeWebhook
// @Summary      Stripe webhook
// @Description  Verifies the Stripe-Signature header and applies payment_intent events to their orders
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe webhook signature"
// @Success      200 {object} APIResponse[billingapp.WebhookResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /payments/stripe/webhook [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	if h.stripeService == nil {
		h.NotFound(c, "Stripe webhooks are not enabled")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.stripeService.ProcessWebhook(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
