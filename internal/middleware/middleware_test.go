package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	for _, h := range handlers {
		app.Use(h)
	}
	app.Get("/ok", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/fail", func(c fiber.Ctx) error {
		return errors.New("boom")
	})
	return app
}

func TestClerkAuth_RejectsMissingOrMalformedHeader(t *testing.T) {
	app := newApp(ClerkAuth("sk_test_dummy", zerolog.Nop()))

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Missing authorization token"},
		{"no bearer prefix", "Token abc", "Invalid authorization header format"},
		{"empty bearer", "Bearer ", "Invalid authorization header format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ok", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "UNAUTHORIZED", body["code"])
			assert.Equal(t, tt.want, body["message"])
		})
	}
}

func TestRequireSession_Disabled(t *testing.T) {
	app := newApp(RequireSession(false, "", zerolog.Nop()))

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	app := newApp(RequestLogger(log))

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status":200`)

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	line := buf.String()
	assert.Contains(t, line, `"level":"error"`)
	assert.Contains(t, line, `"status":500`)
	assert.True(t, strings.Contains(line, "boom"))
}
