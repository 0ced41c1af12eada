package domain

import "time"

type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	OrganizationID      *string
	IsActive            bool
	EmailVerified       bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsLockedOut reports whether the account is inside an active lockout window.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
