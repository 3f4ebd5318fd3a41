package checkout

import (
	"errors"
	"strings"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
	"github.com/akylbek/payment-system/midtrans-gateway/internal/pricing"
)

const (
	maxCustomFields     = 2
	maxCustomFieldChars = 255
)

type Options struct {
	Enable3DS    bool
	CustomFields []string
	FinishURL    string
}

// PaymentRequestBuilder assembles the parts of a Midtrans request every payment method shares.
type PaymentRequestBuilder struct {
	items *pricing.Builder
	opts  Options
}

func NewPaymentRequestBuilder(items *pricing.Builder, opts Options) *PaymentRequestBuilder {
	return &PaymentRequestBuilder{items: items, opts: opts}
}

func (b *PaymentRequestBuilder) Build(order *models.Order) (*models.PaymentRequest, error) {
	if order == nil || order.ID == "" {
		return nil, errors.New("order id is required")
	}

	items, gross := b.items.Build(order)

	billing := customerAddress(order.Billing, order.Billing.Phone)
	shipping := billing
	if order.ShipToDifferentAddress {
		shipping = customerAddress(order.Shipping, order.Billing.Phone)
	}

	req := &models.PaymentRequest{
		OrderID:     order.ID,
		GrossAmount: gross,
		Items:       items,
		Customer: models.CustomerDetails{
			FirstName: order.Billing.FirstName,
			LastName:  order.Billing.LastName,
			Email:     order.Billing.Email,
			Phone:     order.Billing.Phone,
			Billing:   billing,
			Shipping:  shipping,
		},
		CreditCard: &models.CreditCard{Secure: b.opts.Enable3DS},
		FinishURL:  b.opts.FinishURL,
	}

	for i, field := range b.customFields() {
		req.CustomFields[i] = field
	}

	return req, nil
}

func (b *PaymentRequestBuilder) customFields() []string {
	fields := make([]string, 0, maxCustomFields)
	for _, f := range b.opts.CustomFields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if len(f) > maxCustomFieldChars {
			f = f[:maxCustomFieldChars]
		}
		fields = append(fields, f)
		if len(fields) == maxCustomFields {
			break
		}
	}
	return fields
}

func customerAddress(a models.Address, phone string) *models.CustomerAddress {
	return &models.CustomerAddress{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Phone:       phone,
		Address:     a.Address1,
		City:        a.City,
		PostalCode:  a.Postcode,
		CountryCode: CountryCode3(a.Country),
	}
}
