package controllers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleShopifyOrderWebhook_MissingDomainHeader(t *testing.T) {
	app := fiber.New()
	app.Post("/webhooks/shopify/orders", HandleShopifyOrderWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify/orders", strings.NewReader(`{"id":1001}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.Contains(t, string(body), "Missing shop domain header")
}

func TestHandleShopifyOrderWebhook_InfrastructureFailureIs5xx(t *testing.T) {
	app := fiber.New()
	app.Post("/webhooks/shopify/orders", HandleShopifyOrderWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify/orders", strings.NewReader(`{"id":1001}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Shopify-Shop-Domain", "aurora.myshopify.com")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
