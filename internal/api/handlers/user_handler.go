package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	user, err := h.s.GetUserInfo(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *UserHandler) RemoveUser(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.s.RemoveUser(c.Context(), userID); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
