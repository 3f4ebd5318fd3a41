package models

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderLocked      = errors.New("order is being updated by another notification")
	ErrValidationGap    = errors.New("unmapped transaction status")
	ErrMissingCardToken = errors.New("subscription card token missing")
	ErrInvalidSignature = errors.New("invalid notification signature")
)

// GatewayError is returned for any failed call to Midtrans.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("midtrans %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("midtrans %s: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
