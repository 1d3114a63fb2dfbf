package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
)

func TestRequireAPISessionAuth_Unauthenticated(t *testing.T) {
	app := fiber.New()
	app.Get("/admin/affiliates", RequireAPISessionAuth, func(c *fiber.Ctx) error {
		return c.SendString("handler reached")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.Contains(t, string(body), "unauthorized")
	assert.Contains(t, string(body), "login required")
	assert.NotContains(t, string(body), "handler reached")
}

func TestRequireAPISessionAuth_PassesLoggedInSession(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("SHOP_CONTEXT", shopcontext.ShopContext{ShopID: 3, IsLoggedIn: true})
		return c.Next()
	})
	app.Get("/admin/affiliates", RequireAPISessionAuth, func(c *fiber.Ctx) error {
		return c.SendString("handler reached")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/affiliates", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.Equal(t, "handler reached", string(body))
}
