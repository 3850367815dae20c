package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	orderapp "github.com/perfume/backend/internal/application/order"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader carries the client key that makes checkout retries safe
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// OrderHandler handles checkout, order tracking and payment endpoints
type OrderHandler struct {
	BaseHandler
	orders *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *orderapp.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// actor describes the caller. Guests identify themselves with the checkout
// email, taken from the ?email query unless the body provided one.
func actor(c *gin.Context, guestEmail string) orderapp.Actor {
	a := orderapp.Actor{GuestEmail: guestEmail}
	if a.GuestEmail == "" {
		a.GuestEmail = c.Query("email")
	}
	if id, ok := middleware.GetUserUUID(c); ok {
		a.UserID = id
		a.Email = middleware.GetJWTEmail(c)
		a.IsAdmin = isAdmin(c)
	}
	return a
}

// Place godoc
// @Summary      Place an order. Signed-in customers own the order, guests give guest_email.
// @Tags         orders
// @Param        Idempotency-Key header string false "Makes retries return the first result"
// @Router       /orders [post]
func (h *OrderHandler) Place(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	var req orderapp.PlaceOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd := orderapp.PlaceOrderCommand{Request: req, UserID: currentUserPtr(c), IdempotencyKey: key}

	result, err := h.orders.Place(c.Request.Context(), cmd, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
		h.Success(c, result.Order)
		return
	}
	h.Created(c, result.Order)
}

// Mine godoc
// @Summary      List the orders of the current customer
// @Tags         orders
// @Security     BearerAuth
// @Router       /orders/mine [get]
func (h *OrderHandler) Mine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req orderapp.ListOrdersRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.orders.ListMine(c.Request.Context(), userID, req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @Summary      Get an order. Guests pass the checkout email.
// @Tags         orders
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id, actor(c, ""), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Track godoc
// @Summary      Find a guest order by number and email
// @Tags         orders
// @Router       /orders/track [get]
func (h *OrderHandler) Track(c *gin.Context) {
	var req orderapp.TrackOrderRequest
	if !h.BindQuery(c, &req) {
		return
	}
	o, err := h.orders.Track(c.Request.Context(), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Cancel godoc
// @Summary      Cancel an order and restock its items
// @Tags         orders
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.CancelOrderRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.Cancel(c.Request.Context(), id, actor(c, ""), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// StartPayment godoc
// @Summary      Start the online payment of an order
// @Tags         orders
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) StartPayment(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.StartPaymentRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	session, err := h.orders.StartPayment(c.Request.Context(), id, actor(c, req.Email))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// CapturePayPal godoc
// @Summary      Capture an approved PayPal payment
// @Tags         orders
// @Router       /orders/{id}/paypal/capture [post]
func (h *OrderHandler) CapturePayPal(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.CapturePayPalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.CapturePayPal(c.Request.Context(), id, actor(c, req.Email), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Invoice godoc
// @Summary      Download the PDF invoice of an order
// @Tags         orders
// @Produce      application/pdf
// @Router       /orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	inv, err := h.orders.Invoice(c.Request.Context(), id, actor(c, ""), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(inv.FileName))
	c.Data(http.StatusOK, inv.ContentType, inv.Body)
}

// List godoc
// @Summary      List all orders
// @Tags         orders
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var req orderapp.ListOrdersRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.orders.List(c.Request.Context(), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// UpdateStatus godoc
// @Summary      Move an order through its lifecycle
// @Tags         orders
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// PaymobCallback godoc
// @Summary      Paymob transaction processed callback, verified by HMAC
// @Tags         payments
// @Param        hmac query string true "HMAC-SHA512 signature"
// @Router       /payments/paymob/callback [post]
func (h *OrderHandler) PaymobCallback(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	if err := h.orders.PaymobCallback(c.Request.Context(), payload, c.Query("hmac")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"received": true})
}
