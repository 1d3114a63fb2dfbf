package middleware

import (
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
	"github.com/gofiber/fiber/v2"
)

// RequireAPISessionAuth ensures a logged-in shop session for API routes.
// Unauthenticated callers get the JSON 401 envelope before any handler or
// data access runs.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !shopcontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
