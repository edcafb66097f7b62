package validation

import (
	"testing"

	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type block struct {
	Body string `json:"body" validate:"required"`
}

type payload struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Name     string  `json:"token_name" validate:"required,max=5"`
	Color    *string `json:"hex_color" validate:"omitempty,hex_color"`
	Date     string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Versions []block `json:"versions" validate:"required,min=1,dive"`
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	bad := "red"
	err := Struct(&payload{
		Email:    "nope",
		Name:     "too long name",
		Color:    &bad,
		Date:     "14/10/2026",
		Versions: []block{{Body: ""}},
	})

	httpErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, 422, httpErr.Status)
	assert.Equal(t, []string{"The email must be a valid email address."}, httpErr.Errors["email"])
	assert.Equal(t, []string{"The token name must not be greater than 5 characters."}, httpErr.Errors["token_name"])
	assert.Equal(t, []string{"The hex color format is invalid."}, httpErr.Errors["hex_color"])
	assert.Contains(t, httpErr.Errors, "date")
	assert.Equal(t, []string{"The body field is required."}, httpErr.Errors["versions.0.body"])
}

func TestStructAcceptsValidPayload(t *testing.T) {
	color := "#A1B2C3"
	err := Struct(&payload{
		Email:    "john@example.com",
		Name:     "api",
		Color:    &color,
		Date:     "2026-10-15",
		Versions: []block{{Body: "hello"}},
	})
	assert.NoError(t, err)
}

func TestStructRequiresNonEmptySlices(t *testing.T) {
	err := Struct(&payload{Email: "john@example.com", Name: "api"})

	httpErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"The versions field is required."}, httpErr.Errors["versions"])
}

type login struct {
	Email string `json:"email" validate:"required,email"`
}

func (login) ValidationMessages() map[string]string {
	return map[string]string{"email.required": "Email address is required"}
}

func TestStructUsesMessageOverrides(t *testing.T) {
	httpErr, ok := errs.As(Struct(&login{}))
	require.True(t, ok)
	assert.Equal(t, "Email address is required", httpErr.Message)
	assert.Equal(t, []string{"Email address is required"}, httpErr.Errors["email"])

	httpErr, ok = errs.As(Struct(&login{Email: "x"}))
	require.True(t, ok)
	assert.Equal(t, []string{"The email must be a valid email address."}, httpErr.Errors["email"])
}

func TestStructMessageFollowsFieldOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		err := Struct(&payload{Versions: []block{{}}})

		httpErr, ok := errs.As(err)
		require.True(t, ok)
		require.Equal(t, "The email field is required.", httpErr.Message)
	}
}
