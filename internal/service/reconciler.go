package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/checkout"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/interfaces"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/telemetry"
)

type Outcome string

const (
	OutcomeIgnored      Outcome = "ignored"
	OutcomeNoTransition Outcome = "no_transition"
	OutcomeApplied      Outcome = "applied"
	OutcomeNoop         Outcome = "noop"
	OutcomeRejected     Outcome = "rejected"
)

// Reconciler applies Midtrans payment notifications to orders.
type Reconciler struct {
	orders    interfaces.OrderGateway
	gateway   interfaces.PaymentGateway
	locker    interfaces.OrderLocker
	publisher interfaces.StatusPublisher
	methods   *checkout.Registry
	policy    TransitionPolicy
	verifier  interfaces.SignatureVerifier
}

// NewReconciler builds a Reconciler. A nil verifier disables signature checks.
func NewReconciler(
	orders interfaces.OrderGateway,
	gateway interfaces.PaymentGateway,
	locker interfaces.OrderLocker,
	publisher interfaces.StatusPublisher,
	methods *checkout.Registry,
	policy TransitionPolicy,
	verifier interfaces.SignatureVerifier,
) *Reconciler {
	return &Reconciler{
		orders:    orders,
		gateway:   gateway,
		locker:    locker,
		publisher: publisher,
		methods:   methods,
		policy:    policy,
		verifier:  verifier,
	}
}

// Handle reconciles one notification. The body is advisory: the transition is
// resolved from the status re-fetched from Midtrans.
func (r *Reconciler) Handle(ctx context.Context, n models.Notification) (outcome Outcome, err error) {
	ctx, span := telemetry.Tracer.Start(ctx, "Reconciler.Handle")
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			telemetry.NotificationsTotal.WithLabelValues("error").Inc()
		} else {
			telemetry.NotificationsTotal.WithLabelValues(string(outcome)).Inc()
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("order_id", n.OrderID),
		attribute.String("status_code", n.StatusCode),
	)

	if !n.Accepted() {
		telemetry.Logger.Info("Ignoring notification with unaccepted status code",
			zap.String("order_id", n.OrderID),
			zap.String("status_code", n.StatusCode),
		)
		return OutcomeIgnored, nil
	}

	if r.verifier != nil && !r.verifier.VerifySignature(n) {
		return "", models.ErrInvalidSignature
	}

	order, err := r.orders.Get(ctx, n.OrderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		telemetry.Logger.Warn("Notification for unknown order", zap.String("order_id", n.OrderID))
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("load order %s: %w", n.OrderID, err)
	}

	status, err := r.gateway.GetTransactionStatus(ctx, order.ID)
	if err != nil {
		return "", fmt.Errorf("re-fetch status of order %s: %w", order.ID, err)
	}

	target, err := r.policy.Resolve(status)
	if errors.Is(err, models.ErrValidationGap) && status.TransactionStatus == models.TxExpire {
		telemetry.Logger.Info("Transaction expired at Midtrans, order left unchanged",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
		)
		return OutcomeNoTransition, nil
	}
	if errors.Is(err, models.ErrValidationGap) {
		telemetry.Logger.Warn("No transition for transaction status",
			zap.String("order_id", order.ID),
			zap.String("transaction_status", status.TransactionStatus),
			zap.String("fraud_status", status.FraudStatus),
			zap.String("payment_type", status.PaymentType),
		)
		return OutcomeNoTransition, nil
	}
	if err != nil {
		return "", err
	}

	release, err := r.locker.Acquire(ctx, order.ID)
	if err != nil {
		return "", err
	}
	defer release()

	res, err := r.orders.Transition(ctx, order.ID, target)
	if err != nil {
		return "", fmt.Errorf("transition order %s to %s: %w", order.ID, target, err)
	}

	switch {
	case res.Applied:
		outcome = OutcomeApplied
		r.afterTransition(ctx, order.ID, res, status)
	case res.Rejected(target):
		outcome = OutcomeRejected
		telemetry.Logger.Warn("Order status transition rejected",
			zap.String("order_id", order.ID),
			zap.String("current_status", string(res.Current)),
			zap.String("target_status", string(target)),
		)
	default:
		outcome = OutcomeNoop
		telemetry.Logger.Info("Order already in target status",
			zap.String("order_id", order.ID),
			zap.String("status", string(target)),
		)
	}

	r.saveCardToken(ctx, order, status)

	return outcome, nil
}

func (r *Reconciler) afterTransition(ctx context.Context, orderID string, res models.TransitionResult, status *models.TransactionStatus) {
	telemetry.TransitionsTotal.WithLabelValues(string(res.Current)).Inc()
	telemetry.Logger.Info("Order status transition",
		zap.String("order_id", orderID),
		zap.String("from_status", string(res.Previous)),
		zap.String("to_status", string(res.Current)),
		zap.String("transaction_status", status.TransactionStatus),
	)

	note := fmt.Sprintf("Midtrans notification received: %s. Payment type: %s.", status.TransactionStatus, status.PaymentType)
	if err := r.orders.AddNote(ctx, orderID, note, false); err != nil {
		telemetry.Logger.Error("Failed to add order note", zap.String("order_id", orderID), zap.Error(err))
	}

	event := models.StatusChangedEvent{
		EventID:           uuid.NewString(),
		OrderID:           orderID,
		Status:            res.Current,
		PreviousStatus:    res.Previous,
		TransactionStatus: status.TransactionStatus,
		FraudStatus:       status.FraudStatus,
		PaymentType:       status.PaymentType,
		Timestamp:         time.Now().UTC(),
	}
	if err := r.publisher.PublishStatusChanged(ctx, event); err != nil {
		telemetry.Logger.Error("Failed to publish status change",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

// saveCardToken keeps the card token Midtrans returns for methods that renew
// off-session. It is stored on the parent subscription when there is one.
// A failed save is logged only: the transition already happened and a
// redelivery would not repair a missing subscription row.
func (r *Reconciler) saveCardToken(ctx context.Context, order *models.Order, status *models.TransactionStatus) {
	if status.SavedTokenID == "" {
		return
	}
	method, err := r.methods.Get(order.PaymentMethod)
	if err != nil {
		return
	}
	if _, ok := method.(checkout.Renewer); !ok {
		return
	}

	holder := order.ID
	if order.ParentID != "" {
		holder = order.ParentID
	}
	if err := r.orders.SetMetadata(ctx, holder, models.MetaSubscriptionToken, status.SavedTokenID); err != nil {
		telemetry.Logger.Error("Failed to save subscription card token",
			zap.String("order_id", order.ID),
			zap.String("holder_id", holder),
			zap.Error(err),
		)
	}
}
