package middleware

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	cfg "github.com/v9cf/contentfactory/configs"
	"github.com/v9cf/contentfactory/internal/metrics"
	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/pkg/crypto"
	"github.com/v9cf/contentfactory/pkg/utils"
)

type AuthMiddleware struct {
	s         service.ApiKeyService
	cfg       *cfg.Config
	collector *metrics.PublishCollector
}

func NewAuthMiddleware(cfg *cfg.Config, service service.ApiKeyService, collector *metrics.PublishCollector) *AuthMiddleware {
	return &AuthMiddleware{s: service, cfg: cfg, collector: collector}
}

// AuthMiddleware authenticates a request from either credential: a
// Bearer API key (recognized by its prefix) or the session cookie. A key
// carries its granted scopes; a session acts with every scope.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rawKey := bearerKey(c); rawKey != "" {
			key, err := m.s.Authenticate(c.Context(), rawKey)
			if err != nil {
				m.collector.KeyAuthFailure()
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": authErrorMessage(err),
				})
			}

			c.Locals("user_id", fmt.Sprintf("%d", key.UserID))
			c.Locals("api_key", key)
			return c.Next()
		}

		tokenString := c.Cookies(m.cfg.CookieName)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API key or session cookie",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1, // Delete cookie
			})

			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

// RequireScope gates a route on one scope. Session callers pass; key
// callers need the scope on their key.
func (m *AuthMiddleware) RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals("api_key").(*models.ApiKey)
		if !ok {
			return c.Next()
		}
		if !key.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fmt.Sprintf("API key lacks the %s scope", scope),
			})
		}
		return c.Next()
	}
}

// SessionOnly rejects API key callers. Key management itself is a
// session operation so a leaked key can never mint or list keys.
func (m *AuthMiddleware) SessionOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("api_key").(*models.ApiKey); ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "This endpoint requires a dashboard session",
			})
		}
		return c.Next()
	}
}

func bearerKey(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.HasPrefix(token, crypto.APIKeyPrefix) {
		return token
	}
	if key := c.Query("api_key"); strings.HasPrefix(key, crypto.APIKeyPrefix) {
		return key
	}
	return ""
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMalformedKey),
		errors.Is(err, service.ErrKeyExpired),
		errors.Is(err, service.ErrUnauthorized):
		return err.Error()
	default:
		return "Unauthorized"
	}
}
