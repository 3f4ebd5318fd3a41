package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

// PaymentGateway defines the contract for the Midtrans API
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req *models.PaymentRequest) (*models.SnapToken, error)
	GetTransactionStatus(ctx context.Context, orderID string) (*models.TransactionStatus, error)
	CreateRecurringTransaction(ctx context.Context, req *models.PaymentRequest) (*models.ChargeResult, error)
}

type SignatureVerifier interface {
	VerifySignature(n models.Notification) bool
}

type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, event models.StatusChangedEvent) error
}
