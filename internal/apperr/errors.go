// Package apperr defines the error categories surfaced by the HTTP layer.
package apperr

import "fmt"

// ValidationError reports a missing or malformed request field. Maps to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// GatewayError wraps a payment-provider failure. The upstream message is passed
// through to the caller in the details field. Maps to 500.
type GatewayError struct {
	Msg      string
	Details  string
	NotFound bool
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Msg, e.Details)
	}
	return e.Msg
}

// MismatchError reports that a payment does not belong to the given
// reservation. Maps to 400.
type MismatchError struct {
	PaymentID     int
	ReservationID string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("payment %d does not belong to reservation %s", e.PaymentID, e.ReservationID)
}

// NotificationError wraps an email relay failure. Maps to 500.
type NotificationError struct {
	Msg  string
	Code string // provider error code, when available
	Err  error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// ConnectionError reports that the email relay connection could not be
// verified. The next send attempt retries verification.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("smtp connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing record. Maps to 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}
