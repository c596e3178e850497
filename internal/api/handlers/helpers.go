package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// GetAPIKeyID returns the authenticated key's id, or 0 for a session.
func GetAPIKeyID(c *fiber.Ctx) int64 {
	if key, ok := c.Locals("api_key").(*models.ApiKey); ok {
		return key.ID
	}
	return 0
}

// serviceError maps service sentinels onto HTTP status codes.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrNoActiveAccount),
		errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrDuplicateAccount):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrKeyLimit):
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
