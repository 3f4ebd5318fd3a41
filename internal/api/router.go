package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/auth"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/handlers"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

type Handlers struct {
	Payments  *handlers.PaymentHandler
	Orders    *handlers.OrderHandler
	Callbacks *handlers.CallbackHandler
}

func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": telemetry.ServiceName})
	})

	// Midtrans notifications and browser returns share one URL
	r.GET("/midtrans/callback", h.Callbacks.Callback)
	r.POST("/midtrans/callback", h.Callbacks.Callback)

	r.POST("/checkout/:order_id", h.Payments.ProcessPayment)

	internal := r.Group("/internal", auth.RequireJWT(jwtSecret))
	internal.POST("/orders", h.Orders.UpsertOrder)
	internal.GET("/orders/:id", h.Orders.GetOrder)
	internal.POST("/subscriptions/renewals", h.Payments.ScheduledPayment)

	return r
}
