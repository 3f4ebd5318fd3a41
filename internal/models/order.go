package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusOnHold     OrderStatus = "on-hold"
	StatusProcessing OrderStatus = "processing"
	StatusCancelled  OrderStatus = "cancelled"
	StatusFailed     OrderStatus = "failed"
)

// allowedFrom maps a target status to the statuses an order may leave for it.
// Transitions only move toward processing, cancelled or failed.
var allowedFrom = map[OrderStatus][]OrderStatus{
	StatusOnHold:     {StatusPending},
	StatusProcessing: {StatusPending, StatusOnHold},
	StatusCancelled:  {StatusPending, StatusOnHold},
	StatusFailed:     {StatusPending, StatusOnHold},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOnHold, StatusProcessing, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusProcessing || s == StatusCancelled || s == StatusFailed
}

// AllowedFrom returns the source statuses from which s can be reached.
func (s OrderStatus) AllowedFrom() []OrderStatus {
	return allowedFrom[s]
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedFrom[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Order metadata keys written by the gateway service.
const (
	MetaSnapToken         = "_mt_payment_snap_token"
	MetaPaymentURL        = "_mt_payment_url"
	MetaSubscriptionToken = "_mt_subscription_card_token"
)

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

type OrderItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int32           `json:"quantity" validate:"gte=0"`
	Subtotal  decimal.Decimal `json:"subtotal"` // per unit, before tax
}

type Fee struct {
	Name      string          `json:"name" validate:"required"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is the snapshot of a platform order held for the duration of one request.
type Order struct {
	ID                     string            `json:"id" validate:"required,max=64"`
	ParentID               string            `json:"parent_id,omitempty" validate:"max=64"`
	PaymentMethod          string            `json:"payment_method" validate:"required"`
	Currency               string            `json:"currency" validate:"required,len=3"`
	Total                  decimal.Decimal   `json:"total"`
	Status                 OrderStatus       `json:"status" validate:"required,oneof=pending on-hold processing cancelled failed"`
	PreviousStatus         OrderStatus       `json:"previous_status,omitempty"`
	Billing                Address           `json:"billing"`
	Shipping               Address           `json:"shipping"`
	ShipToDifferentAddress bool              `json:"ship_to_different_address"`
	Items                  []OrderItem       `json:"items" validate:"dive"`
	ShippingTotal          decimal.Decimal   `json:"shipping_total"`
	TaxTotal               decimal.Decimal   `json:"tax_total"`
	DiscountTotal          decimal.Decimal   `json:"discount_total"`
	Fees                   []Fee             `json:"fees" validate:"dive"`
	Metadata               map[string]string `json:"metadata,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// TransitionResult reports what a status transition did to the stored order.
type TransitionResult struct {
	Applied  bool
	Previous OrderStatus
	Current  OrderStatus
}

// Rejected is true when the order was left in a status other than the requested one.
func (r TransitionResult) Rejected(target OrderStatus) bool {
	return !r.Applied && r.Current != target
}

// StatusChangedEvent is published after every applied transition.
type StatusChangedEvent struct {
	EventID           string      `json:"event_id"`
	OrderID           string      `json:"order_id"`
	Status            OrderStatus `json:"status"`
	PreviousStatus    OrderStatus `json:"previous_status"`
	TransactionStatus string      `json:"transaction_status"`
	FraudStatus       string      `json:"fraud_status,omitempty"`
	PaymentType       string      `json:"payment_type"`
	Timestamp         time.Time   `json:"timestamp"`
}
