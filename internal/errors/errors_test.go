package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	ve := &ValidationError{Reasons: []string{"email is required", "password must be at least 6 characters"}}

	assert.Contains(t, ve.Error(), "email is required")

	got, ok := AsValidation(ve)
	require.True(t, ok)
	assert.Equal(t, ve.Reasons, got.Reasons)
}

func TestAsValidation_WrappedAndForeign(t *testing.T) {
	ve := &ValidationError{Reasons: []string{"last name is required"}}
	wrapped := fmt.Errorf("register: %w", ve)

	got, ok := AsValidation(wrapped)
	require.True(t, ok)
	assert.Equal(t, ve.Reasons, got.Reasons)

	_, ok = AsValidation(ErrInvalidCredentials)
	assert.False(t, ok)

	_, ok = AsValidation(nil)
	assert.False(t, ok)
}
