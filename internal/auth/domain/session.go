package domain

import "time"

// Session binds an issued token pair to a user. Rows are append-only: a
// refresh revokes the old row and inserts a new one, and revocation is the
// only mutation a row ever sees.
type Session struct {
	ID           string
	UserID       string
	SessionToken string
	RefreshToken string
	TokenHash    string
	ExpiresAt    time.Time
	RevokedAt    *time.Time
	IPAddress    string
	UserAgent    string
	DeviceName   *string
	CreatedAt    time.Time
}

// IsActive reports whether the session is neither revoked nor expired.
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
