package gateway

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/payout"
	"github.com/stripe/stripe-go/v72/refund"
	"github.com/stripe/stripe-go/v72/webhook"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreatePayout(ctx context.Context, req PayoutRequest) (string, error) {
	params := &stripe.PayoutParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	if req.Destination != "" {
		params.Destination = stripe.String(req.Destination)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)
	params.AddMetadata("reference", req.Reference)

	po, err := payout.New(params)
	if err != nil {
		return "", wrapStripeErr("payout", err)
	}
	return po.ID, nil
}

func (p *StripeProvider) CreateRefund(ctx context.Context, chargeReference string, amount int64) (string, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(chargeReference),
		Amount: stripe.Int64(amount),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		return "", wrapStripeErr("refund", err)
	}
	return ref.ID, nil
}

// VerifyWebhook checks the Stripe signature header and returns the
// parsed event. Unsigned or tampered payloads are rejected.
func (p *StripeProvider) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, p.webhookSecret)
}

// wrapStripeErr keeps Stripe API rejections as-is but maps transport
// failures to ErrUnavailable so callers know the operation may not
// have reached the gateway at all.
func wrapStripeErr(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe %s rejected: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
