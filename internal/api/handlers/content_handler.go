package handlers

import (
	"encoding/json"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/internal/transfer"
)

type ContentHandler struct {
	s     service.ContentService
	media service.MediaService
}

func NewContentHandler(service service.ContentService, media service.MediaService) *ContentHandler {
	return &ContentHandler{s: service, media: media}
}

// CreateContent accepts either a JSON body or a multipart form with a
// "payload" JSON part plus uploaded "media" files.
func (h *ContentHandler) CreateContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var creation transfer.ContentCreation
	var files []*multipart.FileHeader

	if form, err := c.MultipartForm(); err == nil {
		if payload := c.FormValue("payload"); payload != "" {
			if err := json.Unmarshal([]byte(payload), &creation); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid payload JSON",
				})
			}
		}
		files = form.File["media"]
	} else if err := c.BodyParser(&creation); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	content, err := h.s.Create(c.Context(), userID, &creation, files)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(content)
}

func (h *ContentHandler) GetContent(c *fiber.Ctx) error {
	userID := GetUserID(c)
	contentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content id",
		})
	}

	content, err := h.s.Get(c.Context(), userID, int64(contentID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(content)
}

func (h *ContentHandler) ListContent(c *fiber.Ctx) error {
	userID := GetUserID(c)
	limit := c.QueryInt("limit", 50)

	contents, err := h.s.List(c.Context(), userID, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(contents)
}

// UploadMedia stores standalone media files and returns their asset
// records; the URLs can then be referenced from content or publishes.
func (h *ContentHandler) UploadMedia(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Expected multipart form data",
		})
	}

	files := form.File["media"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No media files provided",
		})
	}

	var items []*models.MediaItem
	for _, file := range files {
		item, err := h.media.UploadFile(c.Context(), file)
		if err != nil {
			return serviceError(c, err)
		}
		items = append(items, item)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"media": items,
	})
}

func (h *ContentHandler) RemoveContent(c *fiber.Ctx) error {
	userID := GetUserID(c)
	contentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(contentID)); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
