package service

import (
	"encoding/json"
	"fmt"
)

// ReturnRequest is what a customer's browser brings back from the Snap page.
type ReturnRequest struct {
	OrderID           string
	TransactionStatus string
	StatusCode        string
	// Response is the JSON payment result posted by asynchronous payment methods.
	Response string
}

type ReturnRouter struct {
	pages Pages
}

func NewReturnRouter(pages Pages) *ReturnRouter {
	return &ReturnRouter{pages: pages}
}

// Resolve picks where to send the customer. It never touches order state.
func (r *ReturnRouter) Resolve(req ReturnRequest) string {
	if req.Response != "" {
		return r.resolveResponse(req.Response)
	}
	if req.OrderID == "" || req.TransactionStatus == "" {
		return r.pages.Shop()
	}
	if req.StatusCode == "200" {
		return r.pages.OrderReceived(req.OrderID)
	}
	return r.pages.Shop()
}

func (r *ReturnRouter) resolveResponse(raw string) string {
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return r.pages.Shop()
	}
	orderID, _ := body["order_id"].(string)
	if orderID == "" || fmt.Sprint(body["status_code"]) != "200" {
		return r.pages.Shop()
	}
	return r.pages.OrderReceived(orderID)
}
