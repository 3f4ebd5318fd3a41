package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

// OrderGateway defines the contract for order data access
type OrderGateway interface {
	Get(ctx context.Context, orderID string) (*models.Order, error)
	Upsert(ctx context.Context, order *models.Order) error
	// Transition moves the order to status if its current status allows it.
	Transition(ctx context.Context, orderID string, status models.OrderStatus) (models.TransitionResult, error)
	SetMetadata(ctx context.Context, orderID, key, value string) error
	GetMetadata(ctx context.Context, orderID, key string) (string, error)
	AddNote(ctx context.Context, orderID, note string, customerNote bool) error
}

// OrderLocker serializes status updates of a single order across instances.
type OrderLocker interface {
	Acquire(ctx context.Context, orderID string) (release func(), err error)
}
