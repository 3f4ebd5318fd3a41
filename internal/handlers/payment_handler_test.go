package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/service"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/validation"
)

type stubPayments struct {
	checkout service.CheckoutResult
	renewal  service.RenewalResult
	amount   decimal.Decimal
}

func (s *stubPayments) ProcessPayment(context.Context, string) service.CheckoutResult {
	return s.checkout
}

func (s *stubPayments) ScheduledPayment(_ context.Context, _ string, amount decimal.Decimal) service.RenewalResult {
	s.amount = amount
	return s.renewal
}

func newPaymentEngine(s *stubPayments) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPaymentHandler(s, s, validation.New())
	r := gin.New()
	r.POST("/checkout/:order_id", h.ProcessPayment)
	r.POST("/internal/subscriptions/renewals", h.ScheduledPayment)
	return r
}

func TestProcessPaymentHandler(t *testing.T) {
	s := &stubPayments{checkout: service.CheckoutResult{Result: service.ResultSuccess, Redirect: "https://shop.test/pay", Token: "snap-123"}}
	w := serve(newPaymentEngine(s), httptest.NewRequest(http.MethodPost, "/checkout/1001", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"success","redirect":"https://shop.test/pay","token":"snap-123"}`, w.Body.String())

	s.checkout = service.CheckoutResult{Result: service.ResultFailure, Error: "order not found"}
	w = serve(newPaymentEngine(s), httptest.NewRequest(http.MethodPost, "/checkout/404", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestScheduledPaymentHandler(t *testing.T) {
	s := &stubPayments{renewal: service.RenewalResult{Result: service.ResultSuccess}}
	r := newPaymentEngine(s)

	req := httptest.NewRequest(http.MethodPost, "/internal/subscriptions/renewals", strings.NewReader(`{"order_id":"501","amount":"150000"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.NewFromInt(150000).Equal(s.amount))

	req = httptest.NewRequest(http.MethodPost, "/internal/subscriptions/renewals", strings.NewReader(`{"amount":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.renewal = service.RenewalResult{Result: service.ResultFailure, Error: "subscription card token missing"}
	req = httptest.NewRequest(http.MethodPost, "/internal/subscriptions/renewals", strings.NewReader(`{"order_id":"501"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
