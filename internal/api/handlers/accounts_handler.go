package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var connection transfer.AccountConnection
	if err := c.BodyParser(&connection); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	info, err := h.s.Connect(c.Context(), userID, &connection)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(info)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) UpdateAccountSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var update transfer.AccountSettingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if id, err := c.ParamsInt("id"); err == nil {
		update.AccountID = int64(id)
	}

	if err := h.s.UpdateSettings(c.Context(), userID, &update); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) DisconnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	if err := h.s.Disconnect(c.Context(), userID, int64(accountID)); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
