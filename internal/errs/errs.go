// Package errs defines the error shape returned to API clients.
//
// Services return *HTTPError for failures the client can act on
// (validation, missing records, state conflicts); anything else is
// treated as an internal error by the HTTP layer.
package errs

import (
	"errors"
	"net/http"
	"sort"
)

// Fields maps a request field to its validation messages.
type Fields map[string][]string

type HTTPError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Errors  Fields `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// As extracts an *HTTPError from err.
func As(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func New(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// NewValidationError builds a 422 with a single field error. The field
// message doubles as the top-level message.
func NewValidationError(field, message string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Errors:  Fields{field: {message}},
	}
}

// NewValidationErrors builds a 422 whose message is the first message
// of the alphabetically first field.
func NewValidationErrors(fields Fields) *HTTPError {
	keys := make([]string, 0, len(fields))
	for k, msgs := range fields {
		if len(msgs) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	message := "The given data was invalid."
	if len(keys) > 0 {
		message = fields[keys[0]][0]
	}
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Errors:  fields,
	}
}

// NewConflictError reports an operation refused because of the record's
// current state.
func NewConflictError(message string) *HTTPError {
	return New(http.StatusUnprocessableEntity, message)
}

func NewNotFoundError(message string) *HTTPError {
	return New(http.StatusNotFound, message)
}

func NewUnauthorizedError(message string) *HTTPError {
	return New(http.StatusUnauthorized, message)
}

func NewForbiddenError(message string) *HTTPError {
	return New(http.StatusForbidden, message)
}

func NewInternalServerError() *HTTPError {
	return New(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
