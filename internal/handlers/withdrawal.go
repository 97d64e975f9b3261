package handlers

import (
	"errors"

	"gigpay/internal/gateway"
	"gigpay/internal/services/withdrawal"
	"gigpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawals *withdrawal.Service
}

func NewWithdrawalHandler(withdrawals *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// RequestWithdrawal reserves the amount and submits a payout. A 503
// response still carries the pending transaction: the reservation is
// kept and the payout submission can be retried.
func (h *WithdrawalHandler) RequestWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount          int64 `json:"amount"`
		PaymentMethodID uint  `json:"payment_method_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.PaymentMethodID == 0 {
		return response.BadRequest(c, "payment_method_id is required")
	}

	txn, err := h.withdrawals.Request(c.Context(), claims.UserID, input.Amount, input.PaymentMethodID)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) && txn != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":       "payout rail unavailable, withdrawal queued for retry",
				"transaction": txn,
			})
		}
		return response.Error(c, statusForError(err), err.Error())
	}

	return response.Created(c, "withdrawal requested", fiber.Map{
		"transaction": txn,
	})
}
