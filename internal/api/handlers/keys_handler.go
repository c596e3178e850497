package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/internal/transfer"
)

type ApiKeyHandler struct {
	s service.ApiKeyService
}

func NewApiKeyHandler(service service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{s: service}
}

// CreateApiKey mints a key and returns the raw secret exactly once.
func (h *ApiKeyHandler) CreateApiKey(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var creation transfer.KeyCreation
	if err := c.BodyParser(&creation); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	issued, err := h.s.Issue(c.Context(), userID, &creation)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(issued)
}

func (h *ApiKeyHandler) ListKeys(c *fiber.Ctx) error {
	userID := GetUserID(c)

	keys, err := h.s.List(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(keys)
}

func (h *ApiKeyHandler) RevokeApiKey(c *fiber.Ctx) error {
	userID := GetUserID(c)
	keyID := c.QueryInt("id", 0)

	if err := h.s.Revoke(c.Context(), userID, int64(keyID)); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
