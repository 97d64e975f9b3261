package handlers

import (
	"gigpay/internal/services/ledger"
	"gigpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type BalanceHandler struct {
	ledger ledger.Service
}

func NewBalanceHandler(ledgerSvc ledger.Service) *BalanceHandler {
	return &BalanceHandler{ledger: ledgerSvc}
}

func (h *BalanceHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	balance, err := h.ledger.GetBalance(c.Context(), claims.UserID)
	if err != nil {
		return response.ServerError(c, "Failed to get balance")
	}

	return response.Success(c, "balance retrieved", fiber.Map{
		"balance": balance,
	})
}
