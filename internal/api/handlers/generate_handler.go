package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/internal/transfer"
)

type GenerateHandler struct {
	s service.GenerateService
}

func NewGenerateHandler(service service.GenerateService) *GenerateHandler {
	return &GenerateHandler{s: service}
}

func (h *GenerateHandler) GenerateContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.s.Generate(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// GenerationStatus answers for either a provider task id or a content
// id; at least one must be given.
func (h *GenerateHandler) GenerationStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if taskID := c.Query("taskId"); taskID != "" {
		status, err := h.s.TaskStatus(c.Context(), userID, taskID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(status)
	}

	if contentID := c.QueryInt("contentId", 0); contentID > 0 {
		content, err := h.s.ContentStatus(c.Context(), userID, int64(contentID))
		if err != nil {
			return serviceError(c, err)
		}

		if content.Status == models.ContentStatusDraft && len(content.AIGeneration.VideoScenes) > 0 {
			if err := h.s.RefreshVideoScenes(c.Context(), content); err != nil {
				return serviceError(c, err)
			}
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"contentId":    content.ID,
			"status":       content.Status,
			"type":         content.Type,
			"media":        content.Media,
			"aiGeneration": content.AIGeneration,
		})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Provide taskId or contentId",
	})
}
