package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError is a field-level input error. Nothing was sent to the server.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects every failing field of a form.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type WriteError struct {
	Entity string
	Op     string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrNoRows is wrapped by WriteError when an update or delete matched nothing.
var ErrNoRows = errors.New("no rows affected")

// ErrUnauthorized is returned for bad credentials or an expired session.
var ErrUnauthorized = errors.New("unauthorized")

// IsValidation reports whether err carries one or more validation errors.
func IsValidation(err error) bool {
	var single *ValidationError
	var many ValidationErrors
	return errors.As(err, &single) || errors.As(err, &many)
}

// Fields flattens validation errors into field/message pairs.
func Fields(err error) []*ValidationError {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return []*ValidationError{single}
	}
	return nil
}

func HTTPStatus(err error) int {
	var notFound *NotFoundError
	var fetch *FetchError
	var write *WriteError
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &write) && errors.Is(err, ErrNoRows):
		return http.StatusNotFound
	case errors.As(err, &fetch), errors.As(err, &write):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
