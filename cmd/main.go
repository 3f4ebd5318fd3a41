package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/api"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/checkout"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/config"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/events"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/gateway"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/handlers"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/interfaces"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/pricing"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/repository"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/service"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/validation"
)

const shutdownGrace = 5 * time.Second

func main() {
	cfg := config.Load()

	err := telemetry.InitTelemetry(telemetry.Options{
		ServiceName:  telemetry.DefaultServiceName,
		OTLPEndpoint: cfg.JaegerEndpoint,
		LogFile:      cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		telemetry.Logger.Error("Midtrans gateway stopped", zap.Error(err))
		_ = telemetry.Shutdown(context.Background())
		os.Exit(1)
	}
	_ = telemetry.Shutdown(context.Background())
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	orders := repository.NewOrderRepository(db)
	if err := orders.InitDB(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	defer rdb.Close()

	statusWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers),
		Topic:    events.TopicOrderStatusChanged,
		Balancer: &kafka.Hash{},
	}
	defer statusWriter.Close()

	mt := gateway.NewClient(gateway.Config{
		ServerKey:   cfg.Midtrans.ServerKey(),
		Environment: gateway.Environment(cfg.Midtrans.Environment),
		Timeout:     cfg.Midtrans.Timeout,
	})
	methods := paymentMethods(cfg)
	pages := service.Pages{BaseURL: cfg.StoreBaseURL}

	var verifier interfaces.SignatureVerifier
	if cfg.Midtrans.VerifySignature {
		verifier = mt
	}

	reconciler := service.NewReconciler(
		orders,
		mt,
		repository.NewRedisOrderLocker(rdb, repository.DefaultLockTTL),
		events.NewKafkaPublisher(statusWriter),
		methods,
		service.TransitionPolicy{SettleCreditCard: cfg.Midtrans.SettleCreditCard},
		verifier,
	)
	checkoutService := service.NewCheckoutService(orders, mt, methods, pages, cfg.Midtrans.EnableRedirect)
	renewalService := service.NewRenewalService(orders, mt, methods, pages)

	renewals := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.KafkaBrokers},
		Topic:    events.TopicSubscriptionRenewal,
		GroupID:  telemetry.ServiceName,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		service.NewRenewalConsumer(renewals, renewalService).Run(ctx)
	}()
	// Stores must outlive an in-flight renewal.
	defer func() {
		stop()
		<-consumerDone
	}()

	v := validation.New()
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Handlers{
			Payments:  handlers.NewPaymentHandler(checkoutService, renewalService, v),
			Orders:    handlers.NewOrderHandler(orders, v),
			Callbacks: handlers.NewCallbackHandler(reconciler, service.NewReturnRouter(pages), v),
		}, cfg.InternalJWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		telemetry.Logger.Info("Midtrans gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Midtrans.Environment),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	telemetry.Logger.Info("Signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// paymentMethods registers the three gateways on one shared request builder.
func paymentMethods(cfg *config.Config) *checkout.Registry {
	normalizer := pricing.NewNormalizer(cfg.StoreCurrency, cfg.SettlementCurrency, cfg.ToIDRRate)
	builder := checkout.NewPaymentRequestBuilder(pricing.NewBuilder(normalizer), checkout.Options{
		Enable3DS:    cfg.Midtrans.Enable3DS,
		CustomFields: cfg.Midtrans.CustomFields,
		FinishURL:    cfg.CallbackURL,
	})
	return checkout.NewRegistry(
		checkout.NewOneTimeMethod(builder, cfg.Midtrans.EnabledPayments),
		checkout.NewInstallmentMethod(builder, cfg.Midtrans.MinInstallmentAmount),
		checkout.NewSubscriptionMethod(builder, cfg.Midtrans.AcquiringBank, cfg.Midtrans.BinNumbers),
	)
}
