package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/services"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

func NewUnavailableError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    message,
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		Details:    err.Error(),
	}
}

// FromError maps any error returned by a handler onto an APIError.
// Service sentinels decide the status; unknown errors become 500.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &APIError{
			StatusCode: fiberErr.Code,
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
		}
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return &APIError{StatusCode: fiber.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, services.ErrInvalidArgument):
		return NewBadRequestError(err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		return NewConflictError(err.Error())
	default:
		return NewInternalError(err)
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "ERROR"
}

// NewErrorHandler returns the fiber ErrorHandler. With hideDetails set,
// internal error details are logged but not sent to the client.
func NewErrorHandler(log zerolog.Logger, hideDetails bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		resp := *FromError(err)
		if resp.StatusCode >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")
			if hideDetails {
				resp.Details = nil
			}
		}
		return c.Status(resp.StatusCode).JSON(resp)
	}
}

// ErrorHandler is the development error handler: details are always returned
func ErrorHandler(c fiber.Ctx, err error) error {
	return NewErrorHandler(zerolog.Nop(), false)(c, err)
}
