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

	"github.com/RefTrackApp/RefTrack/app/repository"
)

func TestHandleAffiliateGet_BadID(t *testing.T) {
	app := fiber.New()
	app.Get("/affiliates/:id", HandleAffiliateGet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/affiliates/none", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleAffiliateCreate_RejectsBadInput(t *testing.T) {
	// the offer check needs the factory in place, validation fails
	// before any repository call touches the missing database
	repository.InitializeFactory(nil)

	app := fiber.New()
	app.Post("/affiliates", HandleAffiliateCreate)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{name: "malformed json", body: `{"email":`, wantMessage: "Invalid request body"},
		{name: "missing offer", body: `{"first_name":"Dana","email":"dana@example.com"}`, wantMessage: "offer_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/affiliates", strings.NewReader(tt.body))
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

func TestHandleAffiliateChangeTerms_RejectsBadInput(t *testing.T) {
	app := fiber.New()
	app.Post("/affiliates/:id/terms", HandleAffiliateChangeTerms)

	tests := []struct {
		name        string
		path        string
		body        string
		wantMessage string
	}{
		{
			name:        "bad id",
			path:        "/affiliates/x/terms",
			body:        `{"payout_terms_days":45}`,
			wantMessage: "invalid id",
		},
		{
			name:        "malformed json",
			path:        "/affiliates/3/terms",
			body:        `{"payout_terms_days":`,
			wantMessage: "Invalid request body",
		},
		{
			name:        "missing terms",
			path:        "/affiliates/3/terms",
			body:        `{"recalculate_existing":true}`,
			wantMessage: "payout_terms_days is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
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
