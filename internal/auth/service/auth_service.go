package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Yorkamc/GesCo/config"
	"github.com/Yorkamc/GesCo/internal/auth/domain"
	"github.com/Yorkamc/GesCo/internal/auth/dto"
	autherror "github.com/Yorkamc/GesCo/internal/errors"
	"github.com/Yorkamc/GesCo/internal/metrics"
	"github.com/Yorkamc/GesCo/pkg/constant"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// dummyPasswordHash is compared against when the account lookup misses, so an
// unknown email costs the same bcrypt work as a wrong password.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService composes the lockout policy, token issuer, session registry and
// login ledger into the four user-facing operations.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRegistry
	attempts domain.LoginAttemptRecorder
	orgs     domain.OrganizationRepository
	tokens   TokenGenerator
	lockout  LockoutPolicy
	cfg      *config.Config
	log      *slog.Logger
}

func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRegistry,
	attempts domain.LoginAttemptRecorder,
	orgs domain.OrganizationRepository,
	tokens TokenGenerator,
	cfg *config.Config,
	log *slog.Logger,
) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		attempts: attempts,
		orgs:     orgs,
		tokens:   tokens,
		lockout:  NewLockoutPolicy(cfg.MaxFailedAttempts, cfg.LockoutMinutes),
		cfg:      cfg,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResponse, error) {
	now := time.Now()

	attempt := &domain.LoginAttempt{
		ID:             uuid.NewString(),
		AttemptedEmail: input.Email,
		Result:         domain.LoginResultInvalidCredentials,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		AttemptedAt:    now,
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if user == nil {
		// Burn a comparison so the response does not reveal whether the
		// email exists.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(input.Password))
		s.recordAttempt(ctx, attempt)

		return nil, autherror.ErrInvalidCredentials
	}

	attempt.UserID = &user.ID

	if user.IsLockedOut(now) {
		attempt.Result = domain.LoginResultAccountLocked
		msg := fmt.Sprintf("account locked until %s", user.LockedUntil.UTC().Format(time.RFC3339))
		attempt.ErrorMessage = &msg
		s.recordAttempt(ctx, attempt)

		return nil, autherror.ErrAccountLocked
	}

	if !user.IsActive {
		attempt.Result = domain.LoginResultAccountInactive
		msg := "account inactive"
		attempt.ErrorMessage = &msg
		s.recordAttempt(ctx, attempt)

		return nil, autherror.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, s.failLogin(ctx, user, attempt)
	}

	if err := s.users.RegisterSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to reset login state: %w", err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	accessToken, refreshToken, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	session := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		SessionToken: accessToken,
		RefreshToken: refreshToken,
		TokenHash:    HashToken(accessToken),
		ExpiresAt:    expiresAt,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		DeviceName:   input.DeviceName,
		CreatedAt:    now,
	}

	attempt.Result = domain.LoginResultSuccess

	// The session row and the success ledger row commit together; a failure
	// here leaves no partial session behind.
	if err := s.sessions.CreateWithAttempt(ctx, session, attempt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.LoginAttempts.WithLabelValues(string(domain.LoginResultSuccess)).Inc()
	metrics.SessionsIssued.Inc()

	s.log.InfoContext(ctx, "user logged in", "email", user.Email, "ip", input.IPAddress)

	return s.loginResponse(ctx, user, accessToken, refreshToken, expiresAt), nil
}

// failLogin applies the lockout policy after a failed password check and
// records the resulting ledger row.
func (s *AuthService) failLogin(ctx context.Context, user *domain.User, attempt *domain.LoginAttempt) error {
	count, _, err := s.users.RegisterFailedLogin(ctx, user.ID, s.lockout.MaxFailedAttempts, s.lockout.LockoutMinutes())
	if err != nil {
		return fmt.Errorf("failed to register failed login: %w", err)
	}

	if s.lockout.LocksAt(count) {
		attempt.Result = domain.LoginResultAccountLocked
		msg := fmt.Sprintf("account locked for %d minutes", s.lockout.LockoutMinutes())
		attempt.ErrorMessage = &msg
		s.recordAttempt(ctx, attempt)

		s.log.WarnContext(ctx, "account locked after repeated failures",
			"email", user.Email, "ip", attempt.IPAddress, "failed_attempts", count)

		return autherror.ErrAccountLocked
	}

	s.recordAttempt(ctx, attempt)

	return autherror.ErrInvalidCredentials
}

func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.LoginResponse, error) {
	session, err := s.sessions.GetActiveByRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		metrics.TokenRotations.WithLabelValues("denied").Inc()
		return nil, autherror.ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	// Deliberately the same failure as an unknown token: the refresh path
	// must not become an account-state oracle.
	if user == nil || !user.IsActive {
		metrics.TokenRotations.WithLabelValues("denied").Inc()
		return nil, autherror.ErrInvalidRefreshToken
	}

	accessToken, refreshToken, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	replacement := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       session.UserID,
		SessionToken: accessToken,
		RefreshToken: refreshToken,
		TokenHash:    HashToken(accessToken),
		ExpiresAt:    expiresAt,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		DeviceName:   session.DeviceName,
		CreatedAt:    time.Now(),
	}

	if err := s.sessions.Rotate(ctx, session.ID, replacement); err != nil {
		if errors.Is(err, autherror.ErrInvalidRefreshToken) {
			// A concurrent rotation claimed the session first.
			metrics.TokenRotations.WithLabelValues("denied").Inc()
			return nil, autherror.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	metrics.TokenRotations.WithLabelValues("ok").Inc()
	metrics.SessionsIssued.Inc()

	return s.loginResponse(ctx, user, accessToken, refreshToken, expiresAt), nil
}

// Logout revokes the active session bound to the given access token. A token
// that no longer maps to an active session is already the desired end state,
// so that case succeeds too.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) (bool, error) {
	session, err := s.sessions.GetActiveBySessionToken(ctx, sessionToken)
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return true, nil
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}
	metrics.SessionsRevoked.Inc()

	s.log.InfoContext(ctx, "session revoked", "user_id", session.UserID)

	return true, nil
}

func (s *AuthService) Register(ctx context.Context, input dto.RegisterInput) (*dto.UserOutput, error) {
	if err := validateRegistration(s.cfg, input); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   string(hashed),
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		OrganizationID: input.OrganizationID,
		IsActive:       true,
		EmailVerified:  false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", "email", user.Email)

	out := mapUser(user)

	return &out, nil
}

// recordAttempt appends a ledger row for a failed login. The auth outcome has
// already been decided, so a ledger write failure is logged rather than
// replacing it.
func (s *AuthService) recordAttempt(ctx context.Context, attempt *domain.LoginAttempt) {
	metrics.LoginAttempts.WithLabelValues(string(attempt.Result)).Inc()

	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.log.ErrorContext(ctx, "failed to record login attempt",
			"email", attempt.AttemptedEmail, "result", string(attempt.Result), "error", err)
	}
}

func (s *AuthService) loginResponse(ctx context.Context, user *domain.User, accessToken, refreshToken string, expiresAt time.Time) *dto.LoginResponse {
	resp := &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constant.DefaultTokenType,
		ExpiresAt:    expiresAt,
		User:         mapUser(user),
	}

	if user.OrganizationID != nil {
		org, err := s.orgs.GetOrganizationByID(ctx, *user.OrganizationID)
		if err != nil {
			// The snapshot is advisory; the issued tokens stand either way.
			s.log.WarnContext(ctx, "failed to load organization snapshot",
				"organization_id", *user.OrganizationID, "error", err)
		} else if org != nil {
			resp.Organization = mapOrganization(org, time.Now())
		}
	}

	return resp
}

func mapUser(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		FullName:       user.FullName(),
		IsActive:       user.IsActive,
		EmailVerified:  user.EmailVerified,
		LastLoginAt:    user.LastLoginAt,
		OrganizationID: user.OrganizationID,
	}
}

func mapOrganization(org *domain.Organization, now time.Time) *dto.OrganizationOutput {
	out := &dto.OrganizationOutput{
		ID:           org.ID,
		Name:         org.Name,
		Code:         org.Code,
		Type:         org.Type,
		ContactEmail: org.ContactEmail,
	}

	if sub := org.Subscription; sub != nil {
		out.Subscription = &dto.SubscriptionOutput{
			ID:            sub.ID,
			Plan:          sub.Plan,
			Status:        sub.Status,
			EndDate:       sub.EndDate,
			MaxUsers:      sub.MaxUsers,
			DaysRemaining: sub.DaysRemaining(now),
			IsExpired:     sub.IsExpired(now),
		}
	}

	return out
}
