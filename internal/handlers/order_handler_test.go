package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/validation"
)

type stubOrders struct {
	stored map[string]*models.Order
}

func (s *stubOrders) Get(_ context.Context, id string) (*models.Order, error) {
	o, ok := s.stored[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return o, nil
}

func (s *stubOrders) Upsert(_ context.Context, o *models.Order) error {
	s.stored[o.ID] = o
	return nil
}

func (s *stubOrders) Transition(context.Context, string, models.OrderStatus) (models.TransitionResult, error) {
	return models.TransitionResult{}, nil
}

func (s *stubOrders) SetMetadata(context.Context, string, string, string) error { return nil }

func (s *stubOrders) GetMetadata(context.Context, string, string) (string, error) { return "", nil }

func (s *stubOrders) AddNote(context.Context, string, string, bool) error { return nil }

func newOrderEngine(s *stubOrders) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(s, validation.New())
	r := gin.New()
	r.POST("/internal/orders", h.UpsertOrder)
	r.GET("/internal/orders/:id", h.GetOrder)
	return r
}

func TestOrderHandler_UpsertThenGet(t *testing.T) {
	s := &stubOrders{stored: map[string]*models.Order{}}
	r := newOrderEngine(s)

	body := `{"id":"1001","payment_method":"midtrans","currency":"IDR","status":"pending","total":"231000",
		"items":[{"product_id":"42","name":"Batik Shirt","quantity":2,"subtotal":"100000"}]}`
	req := httptest.NewRequest(http.MethodPost, "/internal/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, s.stored, "1001")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/internal/orders/1001", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
	assert.Contains(t, w.Body.String(), `"final":false`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/internal/orders/404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_RejectsInvalidOrder(t *testing.T) {
	s := &stubOrders{stored: map[string]*models.Order{}}
	r := newOrderEngine(s)

	req := httptest.NewRequest(http.MethodPost, "/internal/orders", strings.NewReader(`{"id":"1001","status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.stored)
}
