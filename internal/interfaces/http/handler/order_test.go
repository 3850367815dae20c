package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/perfume/backend/internal/application/order"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRouter(env *testEnv, mw ...gin.HandlerFunc) *gin.Engine {
	h := NewOrderHandler(env.orders)
	r := newEngine(mw...)
	r.POST("/orders", h.Place)
	r.GET("/orders/track", h.Track)
	r.GET("/orders/mine", h.Mine)
	r.GET("/orders/:id", h.Get)
	r.POST("/orders/:id/cancel", h.Cancel)
	r.PATCH("/orders/:id/status", h.UpdateStatus)
	return r
}

func guestCheckout(productID uuid.UUID, qty int) orderapp.PlaceOrderRequest {
	return orderapp.PlaceOrderRequest{
		Items: []orderapp.PlaceOrderItem{{ProductID: productID, Quantity: qty}},
		Shipping: orderapp.AddressInput{
			FullName: "Nour Hassan",
			Phone:    "+201000000000",
			Line1:    "12 Nile St",
			City:     "Cairo",
			Country:  "EG",
		},
		PaymentMethod: "cod",
		GuestEmail:    "nour@example.com",
	}
}

func TestOrderHandler_PlaceIdempotent(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "amber-night", "400", 5)
	r := orderRouter(env)
	body := guestCheckout(p.ID, 2)

	first := doJSON(r, http.MethodPost, "/orders", body, IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	var placed orderapp.OrderResponse
	decode(t, first, &placed)
	assert.Equal(t, "pending", placed.Status)
	assert.Equal(t, "850", placed.Total.String())
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := doJSON(r, http.MethodPost, "/orders", body, IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	var replayed orderapp.OrderResponse
	decode(t, second, &replayed)
	assert.Equal(t, placed.ID, replayed.ID)

	stored, err := env.products.Get(t.Context(), p.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock, "a replay must not reserve stock twice")
}

func TestOrderHandler_PlaceRejectsLongKey(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "long-key", "100", 5)
	r := orderRouter(env)

	w := doJSON(r, http.MethodPost, "/orders", guestCheckout(p.ID, 1), IdempotencyKeyHeader, strings.Repeat("k", 256))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_PlaceInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "rare-oud", "900", 1)
	r := orderRouter(env)

	w := doJSON(r, http.MethodPost, "/orders", guestCheckout(p.ID, 2))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInsufficientStock, decode(t, w, nil).Error.Code)
}

func TestOrderHandler_PlaceValidation(t *testing.T) {
	r := orderRouter(newTestEnv(t))

	w := doJSON(r, http.MethodPost, "/orders", map[string]any{"items": []any{}, "payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode(t, w, nil).Error.Code)
}

func TestOrderHandler_GuestAccess(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "rose-musk", "1200", 3)
	r := orderRouter(env)

	w := doJSON(r, http.MethodPost, "/orders", guestCheckout(p.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderapp.OrderResponse
	decode(t, w, &placed)
	assert.True(t, placed.ShippingFee.IsZero(), "orders above the threshold ship free")

	t.Run("with checkout email", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/orders/"+placed.ID.String()+"?email=NOUR@example.com", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("without email", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/orders/"+placed.ID.String(), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decode(t, w, nil).Error.Code)
	})

	t.Run("track", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/orders/track?number="+placed.Number+"&email=nour@example.com", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var tracked orderapp.OrderResponse
		decode(t, w, &tracked)
		assert.Equal(t, placed.ID, tracked.ID)
	})

	t.Run("track with wrong email", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/orders/track?number="+placed.Number+"&email=other@example.com", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_CustomerOrders(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "vetiver", "300", 10)
	owner := uuid.New()
	r := orderRouter(env, asUser(owner, identity.RoleCustomer))

	body := guestCheckout(p.ID, 1)
	body.GuestEmail = ""
	w := doJSON(r, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderapp.OrderResponse
	decode(t, w, &placed)
	require.NotNil(t, placed.UserID)
	assert.Equal(t, owner, *placed.UserID)

	w = doJSON(r, http.MethodGet, "/orders/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []orderapp.OrderResponse
	env2 := decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.EqualValues(t, 1, env2.Meta.Total)

	stranger := orderRouter(env, asUser(uuid.New(), identity.RoleCustomer))
	w = doJSON(stranger, http.MethodGet, "/orders/"+placed.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/orders/"+placed.ID.String()+"/cancel", map[string]string{"reason": "changed my mind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled orderapp.OrderResponse
	decode(t, w, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Status)

	stored, err := env.products.Get(t.Context(), p.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)
}

func TestOrderHandler_UpdateStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "santal", "200", 4)
	admin := orderRouter(env, asUser(uuid.New(), identity.RoleAdmin))

	w := doJSON(admin, http.MethodPost, "/orders", guestCheckout(p.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderapp.OrderResponse
	decode(t, w, &placed)
	path := "/orders/" + placed.ID.String() + "/status"

	w = doJSON(admin, http.MethodPatch, path, orderapp.UpdateStatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w, nil).Error.Code)

	for _, status := range []string{"confirmed", "shipped", "delivered"} {
		w = doJSON(admin, http.MethodPatch, path, orderapp.UpdateStatusRequest{Status: status})
		require.Equal(t, http.StatusOK, w.Code, status+": "+w.Body.String())
	}
	var delivered orderapp.OrderResponse
	decode(t, w, &delivered)
	assert.Equal(t, "paid", delivered.PaymentStatus, "cash on delivery is paid on delivery")
}
