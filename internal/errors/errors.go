package errors

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account temporarily locked due to multiple failed attempts")
	ErrAccountInactive     = errors.New("account inactive")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionTokenMissing = errors.New("session token not found")
	ErrEmailAlreadyInUse   = errors.New("email already in use")
)

// ValidationError carries every registration policy violation so the caller
// can surface them verbatim.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
