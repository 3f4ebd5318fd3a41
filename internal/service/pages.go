package service

import (
	"net/url"
	"strings"
)

// Pages builds the storefront URLs customers are sent back to.
type Pages struct {
	BaseURL string
}

func (p Pages) base() string {
	return strings.TrimRight(p.BaseURL, "/")
}

func (p Pages) OrderReceived(orderID string) string {
	return p.base() + "/checkout/order-received/" + url.PathEscape(orderID) + "/"
}

func (p Pages) Shop() string {
	return p.base() + "/shop/"
}

// CheckoutPayment is the order-pay page. snapToken is omitted when empty,
// which gives the retry link sent with failed renewals.
func (p Pages) CheckoutPayment(orderID, snapToken string) string {
	q := url.Values{}
	q.Set("order_id", orderID)
	if snapToken != "" {
		q.Set("snap_token", snapToken)
	}
	return p.base() + "/checkout/order-pay/" + url.PathEscape(orderID) + "/?" + q.Encode()
}
