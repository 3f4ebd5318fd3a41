package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

func TestTransitionPolicy_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		status  models.TransactionStatus
		want    models.OrderStatus
		wantGap bool
	}{
		{"capture accepted", models.TransactionStatus{TransactionStatus: "capture", FraudStatus: "accept", PaymentType: "credit_card"}, models.StatusProcessing, false},
		{"capture challenged", models.TransactionStatus{TransactionStatus: "capture", FraudStatus: "challenge", PaymentType: "credit_card"}, models.StatusOnHold, false},
		{"capture denied by fraud", models.TransactionStatus{TransactionStatus: "capture", FraudStatus: "deny"}, "", true},
		{"settlement bank transfer", models.TransactionStatus{TransactionStatus: "settlement", PaymentType: "bank_transfer"}, models.StatusProcessing, false},
		{"settlement credit card", models.TransactionStatus{TransactionStatus: "settlement", PaymentType: "credit_card"}, "", true},
		{"pending", models.TransactionStatus{TransactionStatus: "pending", PaymentType: "gopay"}, models.StatusOnHold, false},
		{"deny", models.TransactionStatus{TransactionStatus: "deny", FraudStatus: "accept"}, models.StatusFailed, false},
		{"cancel", models.TransactionStatus{TransactionStatus: "cancel"}, models.StatusCancelled, false},
		{"expire", models.TransactionStatus{TransactionStatus: "expire"}, "", true},
		{"refund", models.TransactionStatus{TransactionStatus: "refund"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TransitionPolicy{}.Resolve(&tt.status)
			if tt.wantGap {
				assert.ErrorIs(t, err, models.ErrValidationGap)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransitionPolicy_SettleCreditCard(t *testing.T) {
	got, err := TransitionPolicy{SettleCreditCard: true}.Resolve(&models.TransactionStatus{
		TransactionStatus: "settlement",
		PaymentType:       "credit_card",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got)
}
