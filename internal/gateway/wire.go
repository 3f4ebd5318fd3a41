package gateway

import (
	"github.com/midtrans/midtrans-go"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

type callbacks struct {
	Finish string `json:"finish,omitempty"`
}

// customerDetails replaces midtrans.CustomerDetails, whose shipping address
// is tagged customer_address instead of shipping_address.
type customerDetails struct {
	FName    string                    `json:"first_name,omitempty"`
	LName    string                    `json:"last_name,omitempty"`
	Email    string                    `json:"email,omitempty"`
	Phone    string                    `json:"phone,omitempty"`
	BillAddr *midtrans.CustomerAddress `json:"billing_address,omitempty"`
	ShipAddr *midtrans.CustomerAddress `json:"shipping_address,omitempty"`
}

type snapRequest struct {
	TransactionDetails midtrans.TransactionDetails `json:"transaction_details"`
	Items              []midtrans.ItemDetails      `json:"item_details"`
	CustomerDetails    *customerDetails            `json:"customer_details,omitempty"`
	EnabledPayments    []string                    `json:"enabled_payments,omitempty"`
	CreditCard         *models.CreditCard          `json:"credit_card,omitempty"`
	CustomField1       string                      `json:"custom_field1,omitempty"`
	CustomField2       string                      `json:"custom_field2,omitempty"`
	CustomField3       string                      `json:"custom_field3,omitempty"`
	Callbacks          *callbacks                  `json:"callbacks,omitempty"`
}

type chargeRequest struct {
	PaymentType        string                      `json:"payment_type"`
	TransactionDetails midtrans.TransactionDetails `json:"transaction_details"`
	CreditCard         *models.CreditCard          `json:"credit_card"`
	Items              []midtrans.ItemDetails      `json:"item_details"`
	CustomerDetails    *customerDetails            `json:"customer_details,omitempty"`
	CustomField1       string                      `json:"custom_field1,omitempty"`
	CustomField2       string                      `json:"custom_field2,omitempty"`
	CustomField3       string                      `json:"custom_field3,omitempty"`
}

func newSnapRequest(req *models.PaymentRequest) *snapRequest {
	out := &snapRequest{
		TransactionDetails: midtrans.TransactionDetails{OrderID: req.OrderID, GrossAmt: req.GrossAmount},
		Items:              itemDetails(req.Items),
		CustomerDetails:    newCustomerDetails(req.Customer),
		EnabledPayments:    req.EnabledPayments,
		CreditCard:         req.CreditCard,
		CustomField1:       req.CustomFields[0],
		CustomField2:       req.CustomFields[1],
		CustomField3:       req.CustomFields[2],
	}
	if req.FinishURL != "" {
		out.Callbacks = &callbacks{Finish: req.FinishURL}
	}
	return out
}

func newChargeRequest(req *models.PaymentRequest) *chargeRequest {
	return &chargeRequest{
		PaymentType:        models.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{OrderID: req.OrderID, GrossAmt: req.GrossAmount},
		CreditCard:         req.CreditCard,
		Items:              itemDetails(req.Items),
		CustomerDetails:    newCustomerDetails(req.Customer),
		CustomField1:       req.CustomFields[0],
		CustomField2:       req.CustomFields[1],
		CustomField3:       req.CustomFields[2],
	}
}

func itemDetails(items []models.LineItem) []midtrans.ItemDetails {
	out := make([]midtrans.ItemDetails, 0, len(items))
	for _, it := range items {
		out = append(out, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  it.Name,
			Price: it.Price,
			Qty:   it.Quantity,
		})
	}
	return out
}

func newCustomerDetails(c models.CustomerDetails) *customerDetails {
	return &customerDetails{
		FName:    c.FirstName,
		LName:    c.LastName,
		Email:    c.Email,
		Phone:    c.Phone,
		BillAddr: customerAddress(c.Billing),
		ShipAddr: customerAddress(c.Shipping),
	}
}

func customerAddress(a *models.CustomerAddress) *midtrans.CustomerAddress {
	if a == nil {
		return nil
	}
	return &midtrans.CustomerAddress{
		FName:       a.FirstName,
		LName:       a.LastName,
		Phone:       a.Phone,
		Address:     a.Address,
		City:        a.City,
		Postcode:    a.PostalCode,
		CountryCode: a.CountryCode,
	}
}
