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

func TestHandleFraudList_RejectsBadResolvedFilter(t *testing.T) {
	app := fiber.New()
	app.Get("/fraud", HandleFraudList)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fraud?resolved=maybe", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.Contains(t, string(body), "resolved must be true or false")
}

func TestHandleFraudResolve_RejectsBadInput(t *testing.T) {
	app := fiber.New()
	app.Post("/fraud/resolve", HandleFraudResolve)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{name: "malformed json", body: `{"fraud_flag_id":`, wantMessage: "Invalid request body"},
		{name: "missing flag id", body: `{}`, wantMessage: "fraud_flag_id is required"},
		{name: "zero flag id", body: `{"fraud_flag_id":0}`, wantMessage: "fraud_flag_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/fraud/resolve", strings.NewReader(tt.body))
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
