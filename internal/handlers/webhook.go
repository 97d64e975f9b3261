package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"gigpay/internal/services/dispute"
	"gigpay/internal/services/settlement"
	"gigpay/internal/services/withdrawal"
	"gigpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	stripe "github.com/stripe/stripe-go/v72"
)

// WebhookVerifier checks the gateway signature on a raw payload and
// returns the contained event.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error)
}

// gatewayEvent is the normalized notification shape the gateway
// attaches to its events for this platform.
type gatewayEvent struct {
	Type             string `json:"type"`
	GatewayReference string `json:"gateway_reference"`
	BookingID        uint   `json:"booking_id"`
	UserID           uint   `json:"user_id"`
	Amount           int64  `json:"amount"`
	TransactionID    uint   `json:"transaction_id"`
	Outcome          string `json:"outcome"`
	Reason           string `json:"reason"`
}

type WebhookHandler struct {
	settlements *settlement.Service
	withdrawals *withdrawal.Service
	disputes    *dispute.Service
	verifier    WebhookVerifier
}

// NewWebhookHandler builds the gateway webhook endpoint. verifier may
// be nil in development; production deployments must set the webhook
// secret so it is not.
func NewWebhookHandler(
	settlements *settlement.Service,
	withdrawals *withdrawal.Service,
	disputes *dispute.Service,
	verifier WebhookVerifier,
) *WebhookHandler {
	return &WebhookHandler{
		settlements: settlements,
		withdrawals: withdrawals,
		disputes:    disputes,
		verifier:    verifier,
	}
}

// Handle dispatches a gateway notification to the owning workflow.
// Idempotency lives in the workflows, not here: a redelivered event is
// acknowledged with 200 either way so the gateway stops retrying.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	var event gatewayEvent
	if h.verifier != nil {
		verified, err := h.verifier.VerifyWebhook(body, c.Get("Stripe-Signature"))
		if err != nil {
			log.Printf("webhook signature verification failed: %v", err)
			return response.BadRequest(c, "invalid signature")
		}
		if err := json.Unmarshal(verified.Data.Raw, &event); err != nil {
			return response.BadRequest(c, "invalid payload")
		}
		if event.Type == "" {
			event.Type = string(verified.Type)
		}
	} else if err := json.Unmarshal(body, &event); err != nil {
		return response.BadRequest(c, "invalid payload")
	}

	if err := h.dispatch(c, event); err != nil {
		log.Printf("webhook %s failed: %v", event.Type, err)
		return response.Error(c, statusForError(err), err.Error())
	}

	return c.JSON(fiber.Map{"received": true})
}

func (h *WebhookHandler) dispatch(c *fiber.Ctx, event gatewayEvent) error {
	ctx := c.Context()
	switch event.Type {
	case "payment.succeeded", "payment_intent.succeeded":
		_, err := h.settlements.RecordPayment(ctx, settlement.RecordPaymentInput{
			BookingID:        event.BookingID,
			UserID:           event.UserID,
			Amount:           event.Amount,
			GatewayReference: event.GatewayReference,
		})
		return err
	case "payment.failed", "payment_intent.payment_failed":
		_, err := h.settlements.RecordFailedPayment(ctx, settlement.RecordPaymentInput{
			BookingID:        event.BookingID,
			UserID:           event.UserID,
			Amount:           event.Amount,
			GatewayReference: event.GatewayReference,
		})
		return err
	case "payout.paid":
		return h.withdrawals.Confirm(ctx, event.GatewayReference)
	case "payout.failed":
		return h.withdrawals.Fail(ctx, event.GatewayReference, event.Reason)
	case "dispute.created", "charge.dispute.created":
		_, err := h.disputes.Hold(ctx, event.TransactionID, event.Amount)
		if errors.Is(err, dispute.ErrAlreadyDisputed) {
			// Redelivered notice; the hold is already in place.
			return nil
		}
		return err
	case "dispute.closed", "charge.dispute.closed":
		_, err := h.disputes.Resolve(ctx, event.TransactionID, dispute.Outcome(event.Outcome))
		if errors.Is(err, dispute.ErrAlreadyResolved) {
			return nil
		}
		return err
	default:
		log.Printf("ignoring unhandled gateway event type %q", event.Type)
		return nil
	}
}
