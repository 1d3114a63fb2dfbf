package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/internal/pkg/commission"
)

func TestRespondErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation errors answer 400",
			err:        &commission.ValidationError{Message: "reason is required"},
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "validation_failed",
		},
		{
			name:       "guard errors answer 422",
			err:        &commission.GuardError{CommissionID: 9, Reason: "commission 9 is paid"},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantCode:   "state_conflict",
		},
		{
			name:       "missing rows answer 404",
			err:        gorm.ErrRecordNotFound,
			wantStatus: fiber.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "everything else answers 500",
			err:        errors.New("connection refused"),
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   "internal_server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return respondError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)
			assert.Contains(t, string(body), tt.wantCode)
		})
	}
}

func TestRespondErrorUnwrapsWrappedGuard(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		guard := &commission.GuardError{CommissionID: 3, Reason: "commission 3 is reversed"}
		return respondError(c, fmt.Errorf("approve batch: %w", guard))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantID  uint
		wantErr bool
	}{
		{name: "numeric id", path: "/42", wantID: 42},
		{name: "zero is invalid", path: "/0", wantErr: true},
		{name: "non numeric is invalid", path: "/abc", wantErr: true},
		{name: "negative is invalid", path: "/-7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/:id", func(c *fiber.Ctx) error {
				id, err := parseIDParam(c, "id")
				if tt.wantErr {
					require.Error(t, err)
				} else {
					require.NoError(t, err)
					assert.Equal(t, tt.wantID, id)
				}
				return c.SendStatus(fiber.StatusNoContent)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		})
	}
}

func TestParsePaginationCaps(t *testing.T) {
	app := fiber.New()
	app.Get("/list", func(c *fiber.Ctx) error {
		offset, limit := parsePagination(c)
		return c.JSON(fiber.Map{"offset": offset, "limit": limit})
	})

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "defaults", url: "/list", want: `{"limit":50,"offset":0}`},
		{name: "negative offset resets", url: "/list?offset=-5", want: `{"limit":50,"offset":0}`},
		{name: "limit capped at 200", url: "/list?limit=1000", want: `{"limit":200,"offset":0}`},
		{name: "zero limit resets", url: "/list?limit=0", want: `{"limit":50,"offset":0}`},
		{name: "values pass through", url: "/list?offset=20&limit=10", want: `{"limit":10,"offset":20}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.url, nil), -1)
			require.NoError(t, err)
			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestParseDateParam(t *testing.T) {
	day, err := parseDateParam("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), day)

	stamp, err := parseDateParam("2025-03-14T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), stamp)

	_, err = parseDateParam("14.03.2025")
	assert.Error(t, err)

	_, err = parseDateParam("")
	assert.Error(t, err)
}

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestDefaultString(t *testing.T) {
	assert.Equal(t, "fallback", defaultString("", "fallback"))
	assert.Equal(t, "value", defaultString("value", "fallback"))
}

func TestGetClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(GetClientIP(c))
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "cloudflare header wins",
			headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "10.0.0.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "first forwarded entry",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"},
			want:    "198.51.100.4",
		},
		{
			name: "falls back to connection address",
			want: "0.0.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
