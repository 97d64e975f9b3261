package handlers

import (
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PaymentMethodHandler struct {
	methods repositories.PaymentMethodRepository
}

func NewPaymentMethodHandler(methods repositories.PaymentMethodRepository) *PaymentMethodHandler {
	return &PaymentMethodHandler{methods: methods}
}

func (h *PaymentMethodHandler) ListPaymentMethods(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	pms, err := h.methods.ListByUser(claims.UserID)
	if err != nil {
		return response.ServerError(c, "Failed to list payment methods")
	}
	return response.Success(c, "payment methods retrieved", fiber.Map{
		"payment_methods": pms,
	})
}

func (h *PaymentMethodHandler) CreatePaymentMethod(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		Type      string `json:"type"`
		LastFour  string `json:"last4"`
		IsDefault bool   `json:"is_default"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	pmType := models.PaymentMethodType(input.Type)
	if !pmType.Valid() {
		return response.BadRequest(c, "type must be card or bank_account")
	}
	if len(input.LastFour) != 4 {
		return response.BadRequest(c, "last4 must be exactly four digits")
	}

	pm := &models.PaymentMethod{
		UserID:    claims.UserID,
		Type:      pmType,
		LastFour:  input.LastFour,
		IsDefault: input.IsDefault,
	}
	if err := h.methods.Create(pm); err != nil {
		return response.ServerError(c, "Failed to create payment method")
	}
	return response.Created(c, "payment method created", fiber.Map{
		"payment_method": pm,
	})
}

func (h *PaymentMethodHandler) SetDefaultPaymentMethod(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "invalid payment method id")
	}

	if err := h.methods.SetDefault(claims.UserID, uint(id)); err != nil {
		return response.Error(c, statusForError(err), err.Error())
	}
	return response.Success(c, "default payment method updated", nil)
}
