package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/auth"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/interfaces"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/validation"
)

type OrderHandler struct {
	orders    interfaces.OrderGateway
	validator *validatorv10.Validate
}

func NewOrderHandler(orders interfaces.OrderGateway, v *validatorv10.Validate) *OrderHandler {
	return &OrderHandler{orders: orders, validator: v}
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if err != nil {
		telemetry.Logger.Error("Error fetching order", zap.String("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":        order.ID,
		"parent_id":       order.ParentID,
		"payment_method":  order.PaymentMethod,
		"status":          order.Status,
		"previous_status": order.PreviousStatus,
		"final":           order.Status.Terminal(),
		"metadata":        order.Metadata,
		"created_at":      order.CreatedAt,
		"updated_at":      order.UpdatedAt,
	})
}

// UpsertOrder stores the snapshot the platform pushes before checkout.
func (h *OrderHandler) UpsertOrder(c *gin.Context) {
	var order models.Order
	if err := validation.BindAndValidate(c, &order, h.validator); err != nil {
		return
	}

	if err := h.orders.Upsert(c.Request.Context(), &order); err != nil {
		telemetry.Logger.Error("Error storing order", zap.String("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store order"})
		return
	}

	telemetry.Logger.Info("Order snapshot stored",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("caller", auth.Subject(c)),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":   "stored",
		"order_id": order.ID,
	})
}
