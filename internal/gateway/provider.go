// Package gateway wraps the external payment gateway. The engine never
// moves money itself; it asks the gateway to and reconciles the
// asynchronous answers delivered over webhooks.
package gateway

import (
	"context"
	"errors"
)

// ErrUnavailable marks a transport-level gateway failure. Local state
// is left intact when it is returned; the caller retries.
var ErrUnavailable = errors.New("payment gateway unavailable")

// PayoutRequest asks the gateway to pay out to a user's instrument.
// Reference is the engine-generated idempotency key; the gateway
// echoes it back in the completion webhook.
type PayoutRequest struct {
	Amount      int64
	Currency    string
	Reference   string
	Destination string
	Description string
}

// Provider is the outbound gateway surface the workflows call.
type Provider interface {
	// CreatePayout submits a payout and returns the gateway's own id
	// for it. Safe to retry with the same Reference.
	CreatePayout(ctx context.Context, req PayoutRequest) (string, error)
	// CreateRefund reverses (part of) a settled charge identified by
	// its gateway reference.
	CreateRefund(ctx context.Context, chargeReference string, amount int64) (string, error)
}
