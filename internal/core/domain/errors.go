package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedReference = errors.New("malformed order reference")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAuthentication     = errors.New("webhook authentication failed")
	ErrAmountMismatch     = errors.New("webhook amount does not match order")
	ErrGateway            = errors.New("payment gateway error")
)

// GatewayError carries the gateway's raw answer so operators can see why an
// invoice was refused.
type GatewayError struct {
	StatusCode int
	Payload    string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("payment gateway error (status %d)", e.StatusCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Payload != "" {
		msg += ": " + e.Payload
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }
