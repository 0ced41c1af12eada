package domain

import "time"

// LoginResult is the recorded outcome of a single login attempt.
type LoginResult string

const (
	LoginResultSuccess            LoginResult = "success"
	LoginResultInvalidCredentials LoginResult = "invalid_credentials"
	LoginResultAccountLocked      LoginResult = "account_locked"
	LoginResultAccountInactive    LoginResult = "account_inactive"
	LoginResultEmailNotVerified   LoginResult = "email_not_verified"
	LoginResultUnknownError       LoginResult = "unknown_error"
)

// LoginAttempt is one row of the append-only login ledger. AttemptedEmail is
// the raw user input and is recorded whether or not an account exists;
// UserID is filled in once the account is resolved.
type LoginAttempt struct {
	ID             string
	AttemptedEmail string
	UserID         *string
	Result         LoginResult
	IPAddress      string
	UserAgent      string
	AttemptedAt    time.Time
	ErrorMessage   *string
}
