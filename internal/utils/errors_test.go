package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/services"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("account a1: %w", services.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{"invalid", fmt.Errorf("%w: amount must be positive", services.ErrInvalidArgument), fiber.StatusBadRequest, "BAD_REQUEST"},
		{"conflict", services.ErrConflict, fiber.StatusConflict, "CONFLICT"},
		{"api error", NewForbiddenError("nope"), fiber.StatusForbidden, "FORBIDDEN"},
		{"fiber error", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestNewErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		hideDetails bool
		err         error
		wantStatus  int
		wantDetails bool
	}{
		{"domain error", true, fmt.Errorf("loan l1: %w", services.ErrNotFound), fiber.StatusNotFound, false},
		{"internal error hidden", true, errors.New("db down"), fiber.StatusInternalServerError, false},
		{"internal error shown", false, errors.New("db down"), fiber.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(zerolog.Nop(), tt.hideDetails)})
			app.Get("/", func(c fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["code"])
			assert.NotEmpty(t, body["message"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantDetails, hasDetails)
		})
	}
}
