package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/service"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

type NotificationReconciler interface {
	Handle(ctx context.Context, n models.Notification) (service.Outcome, error)
}

type ReturnResolver interface {
	Resolve(req service.ReturnRequest) string
}

// CallbackHandler serves the single URL Midtrans uses both for payment
// notifications and for sending the customer's browser back to the store.
type CallbackHandler struct {
	reconciler NotificationReconciler
	router     ReturnResolver
	validator  *validatorv10.Validate
}

func NewCallbackHandler(reconciler NotificationReconciler, router ReturnResolver, v *validatorv10.Validate) *CallbackHandler {
	return &CallbackHandler{reconciler: reconciler, router: router, validator: v}
}

func (h *CallbackHandler) Callback(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Query("order_id") != "" {
		h.redirect(c, service.ReturnRequest{
			OrderID:           c.Query("order_id"),
			TransactionStatus: c.Query("transaction_status"),
			StatusCode:        c.Query("status_code"),
		})
		return
	}

	if isForm(c.ContentType()) {
		if response := c.PostForm("response"); response != "" {
			h.redirect(c, service.ReturnRequest{Response: response})
			return
		}
	}

	h.notification(c)
}

func (h *CallbackHandler) redirect(c *gin.Context, req service.ReturnRequest) {
	c.Redirect(http.StatusFound, h.router.Resolve(req))
}

func (h *CallbackHandler) notification(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		acknowledge(c, "ignored")
		return
	}

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		telemetry.Logger.Warn("Unparseable notification body", zap.Error(err))
		acknowledge(c, "ignored")
		return
	}
	if err := h.validator.Struct(n); err != nil {
		telemetry.Logger.Warn("Incomplete notification", zap.String("order_id", n.OrderID), zap.Error(err))
		acknowledge(c, "ignored")
		return
	}

	outcome, err := h.reconciler.Handle(c.Request.Context(), n)
	if err != nil {
		status := statusFor(err)
		telemetry.Logger.Error("Error handling notification",
			zap.String("order_id", n.OrderID),
			zap.Int("status", status),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": err.Error(), "order_id": n.OrderID})
		return
	}

	acknowledge(c, string(outcome))
}

// statusFor picks the response for a failed notification. Anything but 2xx
// makes Midtrans deliver the notification again.
func statusFor(err error) int {
	var gwErr *models.GatewayError
	switch {
	case errors.Is(err, models.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, models.ErrOrderLocked):
		return http.StatusConflict
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func acknowledge(c *gin.Context, outcome string) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "outcome": outcome})
}

func isForm(contentType string) bool {
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}
