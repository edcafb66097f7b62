package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("deleting post: %w", NewConflictError("Cannot delete posts that are currently being published"))

	httpErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	assert.Equal(t, "Cannot delete posts that are currently being published", httpErr.Message)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestNewValidationErrorsUsesFirstMessage(t *testing.T) {
	err := NewValidationErrors(Fields{"name": {"The name field is required."}})

	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "The name field is required.", err.Message)
	assert.Equal(t, []string{"The name field is required."}, err.Errors["name"])

	empty := NewValidationErrors(Fields{})
	assert.Equal(t, "The given data was invalid.", empty.Message)
}

func TestNewValidationErrorsMessageIsStable(t *testing.T) {
	fields := Fields{
		"token_name": {"Token name is required"},
		"password":   {"Password is required"},
		"email":      {"Email address is required"},
		"abilities":  {},
	}

	for i := 0; i < 100; i++ {
		require.Equal(t, "Email address is required", NewValidationErrors(fields).Message)
	}
}
