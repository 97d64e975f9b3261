package handlers

import (
	"log"
	"strconv"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
	"gigpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const maxTransactionLimit = 100

type TransactionHandler struct {
	ledger ledger.Service
}

func NewTransactionHandler(ledgerSvc ledger.Service) *TransactionHandler {
	return &TransactionHandler{ledger: ledgerSvc}
}

func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	filter := repositories.TransactionFilter{}
	if t := c.Query("type"); t != "" {
		txType := models.TransactionType(t)
		if !txType.Valid() {
			return response.BadRequest(c, "unknown transaction type")
		}
		filter.Type = txType
	}
	if st := c.Query("status"); st != "" {
		status := models.TransactionStatus(st)
		if !status.Valid() {
			return response.BadRequest(c, "unknown transaction status")
		}
		filter.Status = status
	}

	txns, err := h.ledger.ListTransactions(c.Context(), claims.UserID, filter, limit, offset)
	if err != nil {
		log.Printf("transaction listing error: %v", err)
		return response.ServerError(c, "Failed to retrieve transactions")
	}

	return c.JSON(fiber.Map{
		"transactions": txns,
		"page":         page,
		"limit":        limit,
		"total":        len(txns),
	})
}
