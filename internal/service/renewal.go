package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/checkout"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/interfaces"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

const renewalFailedNote = "Midtrans subscription payment failed."

type RenewalResult struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// RenewalService charges subscription renewals against the stored card token.
// Failed renewals are never retried here; the subscription scheduler owns retries.
type RenewalService struct {
	orders  interfaces.OrderGateway
	gateway interfaces.PaymentGateway
	methods *checkout.Registry
	pages   Pages
}

func NewRenewalService(orders interfaces.OrderGateway, gateway interfaces.PaymentGateway, methods *checkout.Registry, pages Pages) *RenewalService {
	return &RenewalService{orders: orders, gateway: gateway, methods: methods, pages: pages}
}

func (s *RenewalService) ScheduledPayment(ctx context.Context, renewalOrderID string, amount decimal.Decimal) (result RenewalResult) {
	ctx, span := telemetry.Tracer.Start(ctx, "RenewalService.ScheduledPayment")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Logger.Error("Panic while charging renewal",
				zap.String("order_id", renewalOrderID),
				zap.Any("panic", rec),
			)
			result = RenewalResult{Result: ResultFailure, Error: fmt.Sprintf("unexpected error: %v", rec)}
		}
	}()

	order, err := s.orders.Get(ctx, renewalOrderID)
	if err != nil {
		telemetry.Logger.Error("Renewal order unavailable", zap.String("order_id", renewalOrderID), zap.Error(err))
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}

	method, err := s.methods.Get(order.PaymentMethod)
	if err != nil {
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}
	renewer, ok := method.(checkout.Renewer)
	if !ok {
		err := fmt.Errorf("payment method %s does not support renewals", order.PaymentMethod)
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}

	subscriptionID := order.ID
	if order.ParentID != "" {
		subscriptionID = order.ParentID
	}
	retryURL := s.pages.CheckoutPayment(order.ID, "")

	cardToken, err := s.orders.GetMetadata(ctx, subscriptionID, models.MetaSubscriptionToken)
	if err != nil {
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}

	req, err := renewer.BuildRenewal(order, cardToken)
	if errors.Is(err, models.ErrMissingCardToken) {
		s.fail(ctx, order.ID, renewalFailedNote)
		s.note(ctx, order.ID, fmt.Sprintf(
			"Customer didn't tick Save Card Info on the previous payment. Please renew the payment here: %s", retryURL))
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}
	if err != nil {
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}

	if amount.IsPositive() && !amount.Ceil().Equal(decimal.NewFromInt(req.GrossAmount)) {
		telemetry.Logger.Warn("Renewal amount differs from order total",
			zap.String("order_id", order.ID),
			zap.String("amount", amount.String()),
			zap.Int64("gross_amount", req.GrossAmount),
		)
	}

	charge, err := s.gateway.CreateRecurringTransaction(ctx, req)
	if err != nil {
		var gwErr *models.GatewayError
		msg := err.Error()
		if errors.As(err, &gwErr) {
			msg = gwErr.Message
		}
		s.fail(ctx, order.ID, renewalFailedNote+" "+msg)
		s.note(ctx, subscriptionID, fmt.Sprintf("%s Please renew the payment here: %s", renewalFailedNote, retryURL))
		return RenewalResult{Result: ResultFailure, Error: err.Error()}
	}

	telemetry.Logger.Info("Renewal charged",
		zap.String("order_id", order.ID),
		zap.String("transaction_id", charge.TransactionID),
		zap.String("transaction_status", charge.TransactionStatus),
	)
	return RenewalResult{Result: ResultSuccess}
}

func (s *RenewalService) fail(ctx context.Context, orderID, note string) {
	res, err := s.orders.Transition(ctx, orderID, models.StatusFailed)
	if err != nil {
		telemetry.Logger.Error("Failed to mark renewal failed", zap.String("order_id", orderID), zap.Error(err))
	} else if res.Rejected(models.StatusFailed) {
		telemetry.Logger.Warn("Renewal order left in its status",
			zap.String("order_id", orderID),
			zap.String("status", string(res.Current)),
		)
	}
	if err := s.orders.AddNote(ctx, orderID, note, false); err != nil {
		telemetry.Logger.Error("Failed to add order note", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *RenewalService) note(ctx context.Context, orderID, note string) {
	if err := s.orders.AddNote(ctx, orderID, note, true); err != nil {
		telemetry.Logger.Error("Failed to add customer note", zap.String("order_id", orderID), zap.Error(err))
	}
}
