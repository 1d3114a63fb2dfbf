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

func TestHandlePayoutRunCreate_RejectsBadDates(t *testing.T) {
	app := fiber.New()
	app.Post("/payout-runs", HandlePayoutRunCreate)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "malformed json",
			body:        `{"period_start":`,
			wantMessage: "Invalid request body",
		},
		{
			name:        "missing period start",
			body:        `{"period_end":"2025-01-31","commission_ids":[1]}`,
			wantMessage: "period_start must be a date",
		},
		{
			name:        "garbage period end",
			body:        `{"period_start":"2025-01-01","period_end":"Jan 31","commission_ids":[1]}`,
			wantMessage: "period_end must be a date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payout-runs", strings.NewReader(tt.body))
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

func TestHandlePayoutRunApprove_BadID(t *testing.T) {
	app := fiber.New()
	app.Post("/payout-runs/:id/approve", HandlePayoutRunApprove)

	req := httptest.NewRequest(http.MethodPost, "/payout-runs/xyz/approve", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePayoutRunApprove_MalformedBody(t *testing.T) {
	app := fiber.New()
	app.Post("/payout-runs/:id/approve", HandlePayoutRunApprove)

	req := httptest.NewRequest(http.MethodPost, "/payout-runs/7/approve", strings.NewReader(`{"payout_reference":`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	assert.Contains(t, string(body), "Invalid request body")
}

func TestHandlePayoutRunDiscard_BadID(t *testing.T) {
	app := fiber.New()
	app.Post("/payout-runs/:id/discard", HandlePayoutRunDiscard)

	req := httptest.NewRequest(http.MethodPost, "/payout-runs/0/discard", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePayoutReport_ValidatesQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/payouts/reports", HandlePayoutReport)

	tests := []struct {
		name        string
		query       string
		wantMessage string
	}{
		{
			name:        "missing start date",
			query:       "end_date=2025-02-01",
			wantMessage: "start_date must be a date",
		},
		{
			name:        "missing end date",
			query:       "start_date=2025-01-01",
			wantMessage: "end_date must be a date",
		},
		{
			name:        "inverted period",
			query:       "start_date=2025-02-01&end_date=2025-01-01",
			wantMessage: "end_date must be after start_date",
		},
		{
			name:        "equal dates",
			query:       "start_date=2025-01-01&end_date=2025-01-01",
			wantMessage: "end_date must be after start_date",
		},
		{
			name:        "unknown format",
			query:       "start_date=2025-01-01&end_date=2025-02-01&format=xlsx",
			wantMessage: "format must be json or csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/payouts/reports?"+tt.query, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)
			assert.Contains(t, string(body), tt.wantMessage)
		})
	}
}
