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

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/middleware"
)

func TestHandleTrackEvent_WithoutTrackingShop(t *testing.T) {
	app := fiber.New()
	app.Post("/track/event", HandleTrackEvent)

	req := httptest.NewRequest(http.MethodPost, "/track/event", strings.NewReader(`{"page_url":"https://shop.example/p"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.Contains(t, string(body), "Missing tracking key")
}

// trackEventApp fakes the tracking key middleware so the handler sees a
// resolved shop without touching the database.
func trackEventApp() *fiber.App {
	app := fiber.New()
	app.Post("/track/event", func(c *fiber.Ctx) error {
		shop := &models.Shop{Name: "Aurora Outfitters", Domain: "aurora.example"}
		shop.ID = 1
		c.Locals(middleware.TrackingShopKey, shop)
		return HandleTrackEvent(c)
	})
	return app
}

func TestHandleTrackEvent_RejectsBadBeacons(t *testing.T) {
	app := trackEventApp()

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "malformed json",
			body:        `{"page_url":`,
			wantMessage: "Invalid request body",
		},
		{
			name:        "missing page url",
			body:        `{"event_type":"page_view"}`,
			wantMessage: "page_url is required",
		},
		{
			name:        "blank page url",
			body:        `{"page_url":"   "}`,
			wantMessage: "page_url is required",
		},
		{
			name:        "unknown event type",
			body:        `{"page_url":"https://aurora.example/p","event_type":"purchase"}`,
			wantMessage: "event_type must be page_view, click or custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/track/event", strings.NewReader(tt.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)
			assert.Contains(t, string(body), tt.wantMessage)
		})
	}
}

func TestPagePath(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "full url", raw: "https://aurora.example/products/boots?ref=12", want: "/products/boots"},
		{name: "root", raw: "https://aurora.example", want: "/"},
		{name: "path only", raw: "/collections/sale", want: "/collections/sale"},
		{name: "unparseable keeps raw", raw: "http://bad url/with spaces", want: "http://bad url/with spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pagePath(tt.raw))
		})
	}
}

func TestHandleAffiliateRedirect_UnknownLink(t *testing.T) {
	app := fiber.New()
	app.Get("/r/:shop/:number", HandleAffiliateRedirect)

	for _, path := range []string{"/r/abc/12", "/r/1/abc", "/r/0/12", "/r/1/0"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)

		body, readErr := io.ReadAll(resp.Body)
		require.NoError(t, readErr)
		assert.Contains(t, string(body), "Unknown link")
	}
}
