package handlers

import (
	"errors"

	"gigpay/internal/gateway"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/dispute"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/refund"
	"gigpay/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
)

// extractUserClaims is a helper to pull validated claims off the
// request context.
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// statusForError maps service errors onto HTTP status codes so every
// handler reports the taxonomy consistently.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, refund.ErrNotRefundable),
		errors.Is(err, dispute.ErrNotDisputable),
		errors.Is(err, dispute.ErrAlreadyDisputed),
		errors.Is(err, dispute.ErrAlreadyResolved),
		errors.Is(err, withdrawal.ErrAlreadyFinalized):
		return fiber.StatusConflict
	case errors.Is(err, dispute.ErrInvalidOutcome),
		errors.Is(err, withdrawal.ErrPaymentMethodNoPayout):
		return fiber.StatusBadRequest
	case errors.Is(err, withdrawal.ErrPaymentMethodNotOwned):
		return fiber.StatusForbidden
	case errors.Is(err, repositories.ErrTransactionNotFound),
		errors.Is(err, repositories.ErrPaymentMethodNotFound),
		errors.Is(err, repositories.ErrBalanceNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, gateway.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
