package services

import (
	"errors"
	"fmt"

	"github.com/ashmitsharp/moneybook-api/internal/store"
)

var (
	// ErrNotFound means a referenced account, transaction, category or loan is absent
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means the request failed validation before any mutation
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is reserved; no operation returns it today
	ErrConflict = errors.New("conflict")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// translate maps store errors onto the service taxonomy
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
