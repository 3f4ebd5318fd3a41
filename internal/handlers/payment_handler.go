package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/service"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/validation"
)

type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, orderID string) service.CheckoutResult
}

type RenewalProcessor interface {
	ScheduledPayment(ctx context.Context, renewalOrderID string, amount decimal.Decimal) service.RenewalResult
}

type PaymentHandler struct {
	checkout  PaymentProcessor
	renewals  RenewalProcessor
	validator *validatorv10.Validate
}

func NewPaymentHandler(checkout PaymentProcessor, renewals RenewalProcessor, v *validatorv10.Validate) *PaymentHandler {
	return &PaymentHandler{
		checkout:  checkout,
		renewals:  renewals,
		validator: v,
	}
}

func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	orderID := c.Param("order_id")

	res := h.checkout.ProcessPayment(c.Request.Context(), orderID)
	if res.Result != service.ResultSuccess {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) ScheduledPayment(c *gin.Context) {
	var req models.RenewalEvent
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	res := h.renewals.ScheduledPayment(c.Request.Context(), req.OrderID, req.Amount)
	if res.Result != service.ResultSuccess {
		telemetry.Logger.Warn("Renewal payment failed",
			zap.String("order_id", req.OrderID),
			zap.String("error", res.Error),
		)
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}

	c.JSON(http.StatusOK, res)
}
