package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnRouter_Resolve(t *testing.T) {
	router := NewReturnRouter(testPages)
	received := "https://shop.test/checkout/order-received/1001/"
	shop := "https://shop.test/shop/"

	tests := []struct {
		name string
		req  ReturnRequest
		want string
	}{
		{"finished", ReturnRequest{OrderID: "1001", TransactionStatus: "capture", StatusCode: "200"}, received},
		{"pending", ReturnRequest{OrderID: "1001", TransactionStatus: "pending", StatusCode: "201"}, shop},
		{"back button", ReturnRequest{OrderID: "1001"}, shop},
		{"empty", ReturnRequest{}, shop},
		{"async success", ReturnRequest{Response: `{"order_id":"1001","status_code":"200","transaction_status":"settlement"}`}, received},
		{"async numeric code", ReturnRequest{Response: `{"order_id":"1001","status_code":200}`}, received},
		{"async pending", ReturnRequest{Response: `{"order_id":"1001","status_code":"201"}`}, shop},
		{"async garbage", ReturnRequest{Response: `{not json`}, shop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, router.Resolve(tt.req))
		})
	}
}

func TestPages_CheckoutPaymentWithoutToken(t *testing.T) {
	assert.Equal(t, "https://shop.test/checkout/order-pay/7/?order_id=7", testPages.CheckoutPayment("7", ""))
}
