package handlers

import (
	"gigpay/internal/services/dispute"
	"gigpay/internal/services/reconciliation"
	"gigpay/internal/services/refund"
	"gigpay/internal/services/withdrawal"
	"gigpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the operator surface: refunds, manual dispute
// handling, payout resubmission and the reconciliation check.
type AdminHandler struct {
	refunds     *refund.Service
	disputes    *dispute.Service
	withdrawals *withdrawal.Service
	reconciler  *reconciliation.Service
}

func NewAdminHandler(
	refunds *refund.Service,
	disputes *dispute.Service,
	withdrawals *withdrawal.Service,
	reconciler *reconciliation.Service,
) *AdminHandler {
	return &AdminHandler{
		refunds:     refunds,
		disputes:    disputes,
		withdrawals: withdrawals,
		reconciler:  reconciler,
	}
}

func (h *AdminHandler) RecordRefund(c *fiber.Ctx) error {
	var input struct {
		SourceTransactionID uint  `json:"source_transaction_id"`
		Amount              int64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	txn, err := h.refunds.Refund(c.Context(), input.SourceTransactionID, input.Amount)
	if err != nil {
		return response.Error(c, statusForError(err), err.Error())
	}
	return response.Created(c, "refund recorded", fiber.Map{
		"transaction": txn,
	})
}

func (h *AdminHandler) RecordDisputeHold(c *fiber.Ctx) error {
	var input struct {
		SourceTransactionID uint  `json:"source_transaction_id"`
		Amount              int64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	txn, err := h.disputes.Hold(c.Context(), input.SourceTransactionID, input.Amount)
	if err != nil {
		return response.Error(c, statusForError(err), err.Error())
	}
	return response.Created(c, "dispute hold recorded", fiber.Map{
		"transaction": txn,
	})
}

func (h *AdminHandler) RecordDisputeResolution(c *fiber.Ctx) error {
	var input struct {
		SourceTransactionID uint   `json:"source_transaction_id"`
		Outcome             string `json:"outcome"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	txn, err := h.disputes.Resolve(c.Context(), input.SourceTransactionID, dispute.Outcome(input.Outcome))
	if err != nil {
		return response.Error(c, statusForError(err), err.Error())
	}
	return response.Success(c, "dispute resolved", fiber.Map{
		"transaction": txn,
	})
}

func (h *AdminHandler) ResubmitWithdrawal(c *fiber.Ctx) error {
	var input struct {
		GatewayReference string `json:"gateway_reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.withdrawals.Resubmit(c.Context(), input.GatewayReference); err != nil {
		return response.Error(c, statusForError(err), err.Error())
	}
	return response.Success(c, "withdrawal resubmitted", nil)
}

// Reconcile runs the ledger audit and reports every balance field that
// disagrees with the transaction history. It never mutates.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	mismatches, err := h.reconciler.Run(c.Context())
	if err != nil {
		return response.ServerError(c, "Reconciliation failed")
	}
	return response.Success(c, "reconciliation complete", fiber.Map{
		"mismatches": mismatches,
		"clean":      len(mismatches) == 0,
	})
}
