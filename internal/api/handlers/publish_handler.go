package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/internal/transfer"
)

type PublishHandler struct {
	s service.PublishService
}

func NewPublishHandler(service service.PublishService) *PublishHandler {
	return &PublishHandler{s: service}
}

// PublishPost records a publish intent and either dispatches it now or
// schedules it for later.
func (h *PublishHandler) PublishPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	apiKeyID := GetAPIKeyID(c)

	var intent transfer.PublishIntent
	if err := c.BodyParser(&intent); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	outcome, err := h.s.Publish(c.Context(), userID, apiKeyID, &intent)
	if err != nil {
		return serviceError(c, err)
	}

	status := fiber.StatusCreated
	if outcome.Status == "failed" {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(outcome)
}

func (h *PublishHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	limit := c.QueryInt("limit", 50)

	posts, err := h.s.List(c.Context(), userID, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PublishHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.s.Get(c.Context(), userID, int64(postID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PublishHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
