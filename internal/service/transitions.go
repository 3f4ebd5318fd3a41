package service

import (
	"fmt"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

// TransitionPolicy maps a canonical Midtrans status onto the order status it drives.
type TransitionPolicy struct {
	// SettleCreditCard completes credit card orders on settlement as well as on capture.
	SettleCreditCard bool
}

// Resolve returns models.ErrValidationGap for every combination without a mapping.
// Unknown statuses must never complete or fail an order.
func (p TransitionPolicy) Resolve(st *models.TransactionStatus) (models.OrderStatus, error) {
	switch st.TransactionStatus {
	case models.TxCapture:
		switch st.FraudStatus {
		case models.FraudAccept:
			return models.StatusProcessing, nil
		case models.FraudChallenge:
			return models.StatusOnHold, nil
		}
	case models.TxSettlement:
		if st.PaymentType != models.PaymentTypeCreditCard || p.SettleCreditCard {
			return models.StatusProcessing, nil
		}
	case models.TxPending:
		return models.StatusOnHold, nil
	case models.TxDeny:
		return models.StatusFailed, nil
	case models.TxCancel:
		return models.StatusCancelled, nil
	}

	return "", fmt.Errorf("%w: transaction_status=%q fraud_status=%q payment_type=%q",
		models.ErrValidationGap, st.TransactionStatus, st.FraudStatus, st.PaymentType)
}
