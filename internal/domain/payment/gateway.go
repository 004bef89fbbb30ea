// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"fmt"
)

// ChargeRequest is a single charge attempt. AmountMinor is the amount in
// the currency's minor unit (cents for USD); Token is the opaque payment
// token collected client side.
type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	Token       string
	Description string
}

// Charge is the result of a successful charge. ProcessorRef is the
// processor's identifier for the charge, stored on the order for
// reconciliation.
type Charge struct {
	ProcessorRef string
}

// Gateway charges payment tokens against an external processor. Adapters
// classify failures into the three error types below; callers branch with
// errors.As and never retry declined charges.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// DeclinedError means the processor refused the charge. UserMessage is safe
// to show to the customer.
type DeclinedError struct {
	UserMessage string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.UserMessage)
}

// TransientError means the charge outcome is unknown or the processor was
// unreachable; the caller may ask the customer to retry.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("payment processor unavailable: %s", e.Reason)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ConfigurationError means our credentials or request shape were rejected.
// Retrying cannot help until the deployment is fixed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("payment gateway misconfigured: %s", e.Reason)
}
