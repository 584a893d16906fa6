package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	orderapp "github.com/storefront/backend/internal/application/order"
	printingapp "github.com/storefront/backend/internal/application/printing"
)

// OrderHandler handles checkout and the customer's orders
type OrderHandler struct {
	BaseHandler
	orderService   *orderapp.OrderService
	paymentService *orderapp.PaymentService
	invoiceService *printingapp.InvoiceService
}

// NewOrderHandler creates a new OrderHandler. paymentService and
// invoiceService may be nil, in which case their routes answer 404.
func NewOrderHandler(
	orderService *orderapp.OrderService,
	paymentService *orderapp.PaymentService,
	invoiceService *printingapp.InvoiceService,
) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
		invoiceService: invoiceService,
	}
}

// Checkout godoc
// @ID           checkoutCart
// @Summary      Check out the cart
// @Description  Settles the session cart into a pending order, decrementing stock.
// @Description  The cart is emptied on success and left intact on failure.
// @Tags         orders
// @Produce      json
// @Param        X-Session-ID header string false "Session ID (falls back to the session cookie)"
// @Success      201 {object} APIResponse[orderapp.OrderResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.orderService.Checkout(c.Request.Context(), getSessionID(c), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listOrders
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Status filter" Enums(pending, paid)
// @Success      200 {object} APIResponse[[]orderapp.OrderListItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req orderapp.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, req.Page, req.PageSize)
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order by invoice
// @Tags         orders
// @Produce      json
// @Param        invoice path string true "Invoice number"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{invoice} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.orderService.GetOrder(c.Request.Context(), customerID, c.Param("invoice"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Pay godoc
// @ID           payOrder
// @Summary      Pay a pending order
// @Description  Charges the order total through the payment gateway and marks the order paid
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        invoice path string true "Invoice number"
// @Param        request body orderapp.PayRequest true "Payment details"
// @Success      200 {object} APIResponse[orderapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{invoice}/pay [post]
func (h *OrderHandler) Pay(c *gin.Context) {
	if h.paymentService == nil {
		h.NotFound(c, "Online payment is not enabled")
		return
	}
	customerID, err := getCustomerID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req orderapp.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.paymentService.Pay(c.Request.Context(), customerID, c.Param("invoice"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkPaid godoc
// @ID           markOrderPaid
// @Summary      Mark an order paid
// @Description  Back-office record of payment collected outside the gateway. Requires the admin claim. Only pending orders can be marked paid.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        invoice path string true "Invoice number"
// @Param        request body orderapp.MarkPaidRequest true "Order owner"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{invoice}/mark-paid [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	var req orderapp.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.orderService.MarkPaid(c.Request.Context(), req.CustomerID, c.Param("invoice"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Invoice godoc
// @ID           downloadOrderInvoice
// @Summary      Download the invoice PDF
// @Description  Streams the rendered invoice, or redirects to the archived copy when object storage is configured.
// @Tags         orders
// @Produce      application/pdf
// @Param        invoice path string true "Invoice number"
// @Success      200 {file} binary
// @Success      302
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{invoice}/invoice.pdf [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	if h.invoiceService == nil {
		h.NotFound(c, "Invoice printing is not enabled")
		return
	}
	customerID, err := getCustomerID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.invoiceService.RenderInvoice(c.Request.Context(), customerID, c.Param("invoice"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if doc.Archived() {
		c.Redirect(http.StatusFound, doc.URL)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Header("X-Page-Count", strconv.Itoa(doc.PageCount))
	c.Data(http.StatusOK, "application/pdf", doc.PDF)
}
