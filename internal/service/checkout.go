package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/checkout"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/interfaces"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type CheckoutResult struct {
	Result   string `json:"result"`
	Redirect string `json:"redirect,omitempty"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
}

type CheckoutService struct {
	orders   interfaces.OrderGateway
	gateway  interfaces.PaymentGateway
	methods  *checkout.Registry
	pages    Pages
	redirect bool
}

// NewCheckoutService builds the checkout flow. With redirect set, customers go
// straight to the Snap page instead of the store's payment page.
func NewCheckoutService(
	orders interfaces.OrderGateway,
	gateway interfaces.PaymentGateway,
	methods *checkout.Registry,
	pages Pages,
	redirect bool,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		gateway:  gateway,
		methods:  methods,
		pages:    pages,
		redirect: redirect,
	}
}

// ProcessPayment requests a Snap token for the order. It never returns an
// error: every failure, panics included, becomes a failure result.
func (s *CheckoutService) ProcessPayment(ctx context.Context, orderID string) (result CheckoutResult) {
	ctx, span := telemetry.Tracer.Start(ctx, "CheckoutService.ProcessPayment")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Logger.Error("Panic while processing payment",
				zap.String("order_id", orderID),
				zap.Any("panic", rec),
			)
			result = failure(fmt.Errorf("unexpected error: %v", rec))
		}
	}()

	token, err := s.createTransaction(ctx, orderID)
	if err != nil {
		telemetry.Logger.Error("Checkout failed", zap.String("order_id", orderID), zap.Error(err))
		return failure(err)
	}

	redirect := s.pages.CheckoutPayment(orderID, token.Token)
	if s.redirect {
		redirect = token.RedirectURL
	}

	telemetry.Logger.Info("Snap token created", zap.String("order_id", orderID))
	return CheckoutResult{Result: ResultSuccess, Redirect: redirect, Token: token.Token}
}

func (s *CheckoutService) createTransaction(ctx context.Context, orderID string) (*models.SnapToken, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	method, err := s.methods.Get(order.PaymentMethod)
	if err != nil {
		return nil, err
	}

	req, err := method.BuildRequest(order)
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}

	token, err := s.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetMetadata(ctx, orderID, models.MetaSnapToken, token.Token); err != nil {
		return nil, err
	}
	if err := s.orders.SetMetadata(ctx, orderID, models.MetaPaymentURL, token.RedirectURL); err != nil {
		return nil, err
	}

	return token, nil
}

func failure(err error) CheckoutResult {
	return CheckoutResult{Result: ResultFailure, Error: err.Error()}
}
