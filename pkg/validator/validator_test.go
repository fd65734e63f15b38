package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"omitempty,max=100"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(registerForm{Email: "a@x.com", Password: "Str0ng!Pw"})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(registerForm{Email: "not-an-email", Password: "abc"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "must be a valid email address", fields["Email"])
	assert.Equal(t, "must be at least 8 characters", fields["Password"])
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(registerForm{Password: "Str0ng!Pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Email' is required")
}
