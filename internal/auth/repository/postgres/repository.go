package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yorkamc/GesCo/internal/auth/domain"
	autherror "github.com/Yorkamc/GesCo/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxIface is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository backs the account store, session registry, login ledger
// and organization snapshots with a single pool.
type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, organization_id,
		       is_active, email_verified, failed_login_attempts, locked_until,
		       last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.OrganizationID,
		&u.IsActive, &u.EmailVerified, &u.FailedLoginAttempts, &u.LockedUntil,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE lower(email) = lower($1)
		LIMIT 1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id = $1
		LIMIT 1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, organization_id,
		                   is_active, email_verified, failed_login_attempts, locked_until,
		                   last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.OrganizationID,
		user.IsActive, user.EmailVerified, user.FailedLoginAttempts, user.LockedUntil,
		user.LastLoginAt, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// RegisterFailedLogin increments the failure counter and arms the lock in one
// statement, so concurrent failures can never both read a stale count.
func (r *PostgresRepository) RegisterFailedLogin(ctx context.Context, userID string, maxAttempts, lockoutMinutes int) (int, *time.Time, error) {
	var count int
	var lockedUntil *time.Time

	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN now() + make_interval(mins => $3)
		        ELSE locked_until
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until`,
		userID, maxAttempts, lockoutMinutes).Scan(&count, &lockedUntil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to register failed login: %w", err)
	}

	return count, lockedUntil, nil
}

func (r *PostgresRepository) RegisterSuccessfulLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = $2,
		    updated_at = now()
		WHERE id = $1`,
		userID, at)
	if err != nil {
		return fmt.Errorf("failed to register successful login: %w", err)
	}
	return nil
}

const insertSessionSQL = `
	INSERT INTO user_sessions (id, user_id, session_token, refresh_token, token_hash,
	                           expires_at, revoked_at, ip_address, user_agent, device_name, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func insertSessionTx(ctx context.Context, tx pgx.Tx, s *domain.Session) error {
	_, err := tx.Exec(ctx, insertSessionSQL,
		s.ID, s.UserID, s.SessionToken, s.RefreshToken, s.TokenHash,
		s.ExpiresAt, s.RevokedAt, s.IPAddress, s.UserAgent, s.DeviceName, s.CreatedAt)
	return err
}

func insertAttemptTx(ctx context.Context, tx pgx.Tx, a *domain.LoginAttempt) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO login_attempts (id, attempted_email, user_id, result, ip_address,
		                            user_agent, attempted_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.AttemptedEmail, a.UserID, string(a.Result), a.IPAddress,
		a.UserAgent, a.AttemptedAt, a.ErrorMessage)
	return err
}

// CreateWithAttempt commits the new session and its success ledger row
// together, so a crash mid-login leaves no session without an audit trail.
func (r *PostgresRepository) CreateWithAttempt(ctx context.Context, session *domain.Session, attempt *domain.LoginAttempt) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertSessionTx(ctx, tx, session); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	if err := insertAttemptTx(ctx, tx, attempt); err != nil {
		return fmt.Errorf("failed to insert login attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, session_token, refresh_token, token_hash,
		       expires_at, revoked_at, ip_address, user_agent, device_name, created_at`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.UserID, &s.SessionToken, &s.RefreshToken, &s.TokenHash,
		&s.ExpiresAt, &s.RevokedAt, &s.IPAddress, &s.UserAgent, &s.DeviceName, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActiveByRefreshToken treats revoked and expired sessions identically to
// absent ones; the caller learns nothing about whether a token once existed.
func (r *PostgresRepository) GetActiveByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_sessions
		WHERE refresh_token = $1 AND revoked_at IS NULL AND expires_at > now()
		LIMIT 1`, sessionColumns)

	session, err := scanSession(r.db.QueryRow(ctx, query, refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get session by refresh token: %w", err)
	}
	return session, nil
}

func (r *PostgresRepository) GetActiveBySessionToken(ctx context.Context, sessionToken string) (*domain.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_sessions
		WHERE session_token = $1 AND revoked_at IS NULL AND expires_at > now()
		LIMIT 1`, sessionColumns)

	session, err := scanSession(r.db.QueryRow(ctx, query, sessionToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get session by session token: %w", err)
	}
	return session, nil
}

// Rotate claims the old session and inserts its replacement in one
// transaction. The claim update matches only an unrevoked row, so of two
// concurrent rotations exactly one can succeed; the loser sees
// ErrInvalidRefreshToken.
func (r *PostgresRepository) Rotate(ctx context.Context, oldSessionID string, replacement *domain.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE user_sessions
		SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`,
		oldSessionID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrInvalidRefreshToken
	}

	if err := insertSessionTx(ctx, tx, replacement); err != nil {
		return fmt.Errorf("failed to insert replacement session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}

// Revoke is idempotent: revoking an already-revoked session changes nothing.
func (r *PostgresRepository) Revoke(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_sessions
		SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`,
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, attempted_email, user_id, result, ip_address,
		                            user_agent, attempted_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.ID, attempt.AttemptedEmail, attempt.UserID, string(attempt.Result), attempt.IPAddress,
		attempt.UserAgent, attempt.AttemptedAt, attempt.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// GetOrganizationByID loads the organization and, when present, its
// subscription snapshot.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	var subID, subPlan, subStatus *string
	var subEndDate *time.Time
	var subMaxUsers *int

	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.name, o.code, o.type, o.contact_email,
		       s.id, s.plan, s.status, s.end_date, s.max_users
		FROM organizations o
		LEFT JOIN subscriptions s ON s.organization_id = o.id
		WHERE o.id = $1
		LIMIT 1`, id).Scan(
		&org.ID, &org.Name, &org.Code, &org.Type, &org.ContactEmail,
		&subID, &subPlan, &subStatus, &subEndDate, &subMaxUsers,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if subID != nil {
		org.Subscription = &domain.Subscription{
			ID:       *subID,
			Plan:     *subPlan,
			Status:   *subStatus,
			EndDate:  *subEndDate,
			MaxUsers: *subMaxUsers,
		}
	}

	return &org, nil
}
