package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

const (
	MethodOneTime      = "midtrans"
	MethodInstallment  = "midtrans_installment"
	MethodSubscription = "midtrans_subscription"
)

const (
	subscriptionInitialField = "woocommerce-subscription-initial"
	subscriptionRenewalField = "woocommerce-subscription-renewal"
)

var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// InstallmentTerms is offered for every bank in InstallmentBanks.
var InstallmentTerms = []int{3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33, 36}

var InstallmentBanks = []string{"bri", "danamon", "maybank", "bni", "mandiri", "bca", "cimb"}

// PaymentMethod builds the Midtrans request for one checkout option.
type PaymentMethod interface {
	ID() string
	BuildRequest(order *models.Order) (*models.PaymentRequest, error)
}

// Renewer is implemented by methods that can charge a stored card off-session.
type Renewer interface {
	BuildRenewal(order *models.Order, cardToken string) (*models.PaymentRequest, error)
}

type OneTimeMethod struct {
	builder         *PaymentRequestBuilder
	enabledPayments []string
}

func NewOneTimeMethod(builder *PaymentRequestBuilder, enabledPayments []string) *OneTimeMethod {
	return &OneTimeMethod{builder: builder, enabledPayments: enabledPayments}
}

func (m *OneTimeMethod) ID() string { return MethodOneTime }

func (m *OneTimeMethod) BuildRequest(order *models.Order) (*models.PaymentRequest, error) {
	req, err := m.builder.Build(order)
	if err != nil {
		return nil, err
	}
	req.EnabledPayments = m.enabledPayments
	return req, nil
}

type InstallmentMethod struct {
	builder   *PaymentRequestBuilder
	minAmount int64
}

func NewInstallmentMethod(builder *PaymentRequestBuilder, minAmount int64) *InstallmentMethod {
	return &InstallmentMethod{builder: builder, minAmount: minAmount}
}

func (m *InstallmentMethod) ID() string { return MethodInstallment }

func (m *InstallmentMethod) BuildRequest(order *models.Order) (*models.PaymentRequest, error) {
	req, err := m.builder.Build(order)
	if err != nil {
		return nil, err
	}
	req.EnabledPayments = []string{models.PaymentTypeCreditCard}

	if req.GrossAmount >= m.minAmount {
		terms := make(map[string][]int, len(InstallmentBanks))
		for _, bank := range InstallmentBanks {
			terms[bank] = append([]int(nil), InstallmentTerms...)
		}
		req.CreditCard.Installment = &models.Installment{Required: true, Terms: terms}
	}
	return req, nil
}

type SubscriptionMethod struct {
	builder       *PaymentRequestBuilder
	acquiringBank string
	bins          []string
}

func NewSubscriptionMethod(builder *PaymentRequestBuilder, acquiringBank string, bins []string) *SubscriptionMethod {
	return &SubscriptionMethod{
		builder:       builder,
		acquiringBank: strings.ToUpper(strings.TrimSpace(acquiringBank)),
		bins:          bins,
	}
}

func (m *SubscriptionMethod) ID() string { return MethodSubscription }

func (m *SubscriptionMethod) BuildRequest(order *models.Order) (*models.PaymentRequest, error) {
	req, err := m.builder.Build(order)
	if err != nil {
		return nil, err
	}
	req.EnabledPayments = []string{models.PaymentTypeCreditCard}
	// Snap only returns saved_token_id when the customer may save the card.
	req.CreditCard.SaveCard = true
	if m.acquiringBank != "" {
		req.CreditCard.Bank = m.acquiringBank
	}
	if len(m.bins) > 0 {
		req.CreditCard.WhitelistBins = m.bins
	}
	req.CustomFields[2] = subscriptionInitialField
	return req, nil
}

// BuildRenewal charges cardToken without 3-D Secure: renewals run off-session.
func (m *SubscriptionMethod) BuildRenewal(order *models.Order, cardToken string) (*models.PaymentRequest, error) {
	if cardToken == "" {
		return nil, models.ErrMissingCardToken
	}
	req, err := m.builder.Build(order)
	if err != nil {
		return nil, err
	}
	req.CreditCard.Secure = false
	req.CreditCard.TokenID = cardToken
	req.CustomFields[2] = subscriptionRenewalField
	return req, nil
}

type Registry struct {
	methods map[string]PaymentMethod
}

func NewRegistry(methods ...PaymentMethod) *Registry {
	r := &Registry{methods: make(map[string]PaymentMethod, len(methods))}
	for _, m := range methods {
		r.methods[m.ID()] = m
	}
	return r
}

func (r *Registry) Get(id string) (PaymentMethod, error) {
	m, ok := r.methods[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, id)
	}
	return m, nil
}
