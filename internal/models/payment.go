package models

import "github.com/shopspring/decimal"

// Midtrans transaction statuses.
const (
	TxCapture    = "capture"
	TxSettlement = "settlement"
	TxPending    = "pending"
	TxDeny       = "deny"
	TxCancel     = "cancel"
	TxExpire     = "expire"
)

const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

const PaymentTypeCreditCard = "credit_card"

// LineItem prices are integer minor units of the settlement currency.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

type CustomerAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

type CustomerDetails struct {
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Billing   *CustomerAddress `json:"billing_address,omitempty"`
	Shipping  *CustomerAddress `json:"shipping_address,omitempty"`
}

type Installment struct {
	Required bool             `json:"required"`
	Terms    map[string][]int `json:"terms"`
}

type CreditCard struct {
	Secure        bool         `json:"secure"`
	SaveCard      bool         `json:"save_card,omitempty"`
	Bank          string       `json:"bank,omitempty"`
	WhitelistBins []string     `json:"whitelist_bins,omitempty"`
	Installment   *Installment `json:"installment,omitempty"`
	TokenID       string       `json:"token_id,omitempty"`
}

// PaymentRequest is the gateway-agnostic shape of a Midtrans transaction request.
type PaymentRequest struct {
	OrderID         string
	GrossAmount     int64
	Items           []LineItem
	Customer        CustomerDetails
	EnabledPayments []string
	CreditCard      *CreditCard
	CustomFields    [3]string
	FinishURL       string
}

// ItemsTotal is the sum of price x quantity over the request items.
func (r *PaymentRequest) ItemsTotal() int64 {
	var total int64
	for _, it := range r.Items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

type SnapToken struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type ChargeResult struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
}

// TransactionStatus is the canonical status returned by the status endpoint.
type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	GrossAmount       string `json:"gross_amount"`
	SavedTokenID      string `json:"saved_token_id"`
}

// Notification is the unauthenticated body Midtrans posts to the callback endpoint.
type Notification struct {
	OrderID           string `json:"order_id" validate:"required"`
	StatusCode        string `json:"status_code" validate:"required,numeric"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
}

// Accepted reports whether the provider status code is one we act on.
func (n Notification) Accepted() bool {
	switch n.StatusCode {
	case "200", "201", "202":
		return true
	}
	return false
}

// RenewalEvent is the payload of a scheduled subscription renewal.
type RenewalEvent struct {
	OrderID string          `json:"order_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}
