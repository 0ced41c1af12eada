package domain

//go:generate mockgen -destination=../../mocks/mock_repository.go -package=mocks github.com/Yorkamc/GesCo/internal/auth/domain UserRepository,SessionRegistry,LoginAttemptRecorder,OrganizationRepository

import (
	"context"
	"time"
)

// UserRepository owns the account rows, including the lockout counters. Lookup
// misses return (nil, nil).
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error

	// RegisterFailedLogin atomically increments the failure counter and, when
	// the new count reaches maxAttempts, sets the lock in the same statement.
	// It returns the post-increment count and the (possibly unchanged) lock time.
	RegisterFailedLogin(ctx context.Context, userID string, maxAttempts, lockoutMinutes int) (int, *time.Time, error)

	// RegisterSuccessfulLogin resets the failure counter, clears any lock and
	// stamps last_login_at.
	RegisterSuccessfulLogin(ctx context.Context, userID string, at time.Time) error
}

// SessionRegistry is the authoritative store of sessions. Active lookups treat
// revoked and expired rows identically to absent ones.
type SessionRegistry interface {
	// CreateWithAttempt persists the session and its success ledger row in a
	// single transaction.
	CreateWithAttempt(ctx context.Context, session *Session, attempt *LoginAttempt) error

	GetActiveByRefreshToken(ctx context.Context, refreshToken string) (*Session, error)
	GetActiveBySessionToken(ctx context.Context, sessionToken string) (*Session, error)

	// Rotate revokes oldSessionID and inserts replacement transactionally. If
	// the old session was already revoked by a concurrent rotation it returns
	// ErrInvalidRefreshToken and inserts nothing.
	Rotate(ctx context.Context, oldSessionID string, replacement *Session) error

	// Revoke is idempotent; revoking an already-revoked session is a no-op.
	Revoke(ctx context.Context, sessionID string) error
}

// LoginAttemptRecorder appends to the login ledger.
type LoginAttemptRecorder interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
}

// OrganizationRepository reads the organization/subscription snapshot for the
// login response. Misses return (nil, nil). The method name stays unambiguous
// because one Postgres repository implements every store interface here.
type OrganizationRepository interface {
	GetOrganizationByID(ctx context.Context, id string) (*Organization, error)
}
