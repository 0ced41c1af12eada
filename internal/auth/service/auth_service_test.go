package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Yorkamc/GesCo/config"
	"github.com/Yorkamc/GesCo/internal/auth/domain"
	"github.com/Yorkamc/GesCo/internal/auth/dto"
	"github.com/Yorkamc/GesCo/internal/auth/service"
	autherror "github.com/Yorkamc/GesCo/internal/errors"
	"github.com/Yorkamc/GesCo/internal/mocks"
	"github.com/Yorkamc/GesCo/pkg/constant"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const correctPassword = "Password123"

type serviceMocks struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRegistry
	attempts *mocks.MockLoginAttemptRecorder
	orgs     *mocks.MockOrganizationRepository
	tokens   *mocks.MockTokenGenerator
}

func testConfig() *config.Config {
	return &config.Config{
		MaxFailedAttempts:        5,
		LockoutMinutes:           15,
		PasswordMinLength:        6,
		PasswordRequireDigit:     true,
		PasswordRequireUppercase: true,
	}
}

func newAuthService(t *testing.T) (*service.AuthService, *serviceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &serviceMocks{
		users:    mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionRegistry(ctrl),
		attempts: mocks.NewMockLoginAttemptRecorder(ctrl),
		orgs:     mocks.NewMockOrganizationRepository(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
	}

	s := service.NewAuthService(m.users, m.sessions, m.attempts, m.orgs, m.tokens, testConfig(), nil)
	return s, m
}

func activeUser(t *testing.T) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(correctPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return &domain.User{
		ID:           "user-123",
		Email:        "test@example.com",
		PasswordHash: string(hashed),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		IsActive:     true,
	}
}

func loginInput() dto.LoginInput {
	return dto.LoginInput{
		Email:     "test@example.com",
		Password:  correctPassword,
		IPAddress: "203.0.113.9",
		UserAgent: "test-agent",
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	input := loginInput()

	expiresAt := time.Now().Add(60 * time.Minute)

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterSuccessfulLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	m.tokens.EXPECT().Issue(user).Return("access-token", "refresh-token", expiresAt, nil)

	var gotSession *domain.Session
	var gotAttempt *domain.LoginAttempt
	m.sessions.EXPECT().CreateWithAttempt(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sess *domain.Session, att *domain.LoginAttempt) error {
			gotSession = sess
			gotAttempt = att
			return nil
		})

	resp, err := s.Login(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, constant.DefaultTokenType, resp.TokenType)
	assert.Equal(t, expiresAt, resp.ExpiresAt)
	assert.Equal(t, user.Email, resp.User.Email)
	assert.NotNil(t, resp.User.LastLoginAt)
	assert.Nil(t, resp.Organization)

	require.NotNil(t, gotSession)
	assert.Equal(t, "refresh-token", gotSession.RefreshToken)
	assert.Equal(t, "access-token", gotSession.SessionToken)
	assert.Equal(t, service.HashToken("access-token"), gotSession.TokenHash)
	assert.Equal(t, input.IPAddress, gotSession.IPAddress)
	assert.True(t, gotSession.IsActive(time.Now()))

	require.NotNil(t, gotAttempt)
	assert.Equal(t, domain.LoginResultSuccess, gotAttempt.Result)
	require.NotNil(t, gotAttempt.UserID)
	assert.Equal(t, user.ID, *gotAttempt.UserID)
}

func TestAuthService_Login_EmailIsCaseInsensitive(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)

	input := loginInput()
	input.Email = "  Test@Example.COM "

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterSuccessfulLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	m.tokens.EXPECT().Issue(user).Return("access", "refresh", time.Now().Add(time.Hour), nil)
	m.sessions.EXPECT().CreateWithAttempt(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.Login(context.Background(), input)
	require.NoError(t, err)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	s, m := newAuthService(t)
	input := loginInput()

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(nil, nil)

	var gotAttempt *domain.LoginAttempt
	m.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, att *domain.LoginAttempt) error {
			gotAttempt = att
			return nil
		})

	resp, err := s.Login(context.Background(), input)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)

	// One ledger row, with the raw input email and no resolved account.
	require.NotNil(t, gotAttempt)
	assert.Equal(t, domain.LoginResultInvalidCredentials, gotAttempt.Result)
	assert.Equal(t, input.Email, gotAttempt.AttemptedEmail)
	assert.Nil(t, gotAttempt.UserID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)

	input := loginInput()
	input.Password = "wrong-password"

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterFailedLogin(gomock.Any(), user.ID, 5, 15).Return(2, nil, nil)

	var gotAttempt *domain.LoginAttempt
	m.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, att *domain.LoginAttempt) error {
			gotAttempt = att
			return nil
		})

	_, err := s.Login(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	require.NotNil(t, gotAttempt)
	assert.Equal(t, domain.LoginResultInvalidCredentials, gotAttempt.Result)
}

func TestAuthService_Login_FifthFailureLocksAccount(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)

	input := loginInput()
	input.Password = "wrong-password"

	lockedUntil := time.Now().Add(15 * time.Minute)

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterFailedLogin(gomock.Any(), user.ID, 5, 15).Return(5, &lockedUntil, nil)

	var gotAttempt *domain.LoginAttempt
	m.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, att *domain.LoginAttempt) error {
			gotAttempt = att
			return nil
		})

	_, err := s.Login(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
	require.NotNil(t, gotAttempt)
	assert.Equal(t, domain.LoginResultAccountLocked, gotAttempt.Result)
	assert.NotNil(t, gotAttempt.ErrorMessage)
}

func TestAuthService_Login_LockedAccountRejectsCorrectPassword(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	lockedUntil := time.Now().Add(10 * time.Minute)
	user.LockedUntil = &lockedUntil
	user.FailedLoginAttempts = 5

	// Correct password, but the lock has not elapsed: no counter update, no
	// password verification side effects.
	input := loginInput()

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)

	var gotAttempt *domain.LoginAttempt
	m.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, att *domain.LoginAttempt) error {
			gotAttempt = att
			return nil
		})

	_, err := s.Login(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
	require.NotNil(t, gotAttempt)
	assert.Equal(t, domain.LoginResultAccountLocked, gotAttempt.Result)
	assert.Equal(t, 5, user.FailedLoginAttempts, "lock short-circuit must not touch the counter")
}

func TestAuthService_Login_ExpiredLockAllowsLogin(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	expired := time.Now().Add(-time.Minute)
	user.LockedUntil = &expired
	user.FailedLoginAttempts = 5

	input := loginInput()

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterSuccessfulLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	m.tokens.EXPECT().Issue(user).Return("access", "refresh", time.Now().Add(time.Hour), nil)
	m.sessions.EXPECT().CreateWithAttempt(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	resp, err := s.Login(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	user.IsActive = false

	input := loginInput()

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)

	var gotAttempt *domain.LoginAttempt
	m.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, att *domain.LoginAttempt) error {
			gotAttempt = att
			return nil
		})

	_, err := s.Login(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrAccountInactive)
	require.NotNil(t, gotAttempt)
	assert.Equal(t, domain.LoginResultAccountInactive, gotAttempt.Result)
}

func TestAuthService_Login_WithOrganizationSnapshot(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	orgID := "org-42"
	user.OrganizationID = &orgID

	input := loginInput()

	org := &domain.Organization{
		ID:   orgID,
		Name: "Asociación Vecinal",
		Type: "community",
		Subscription: &domain.Subscription{
			ID:       "sub-1",
			Plan:     "basic",
			Status:   "active",
			EndDate:  time.Now().Add(30 * 24 * time.Hour),
			MaxUsers: 25,
		},
	}

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterSuccessfulLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	m.tokens.EXPECT().Issue(user).Return("access", "refresh", time.Now().Add(time.Hour), nil)
	m.sessions.EXPECT().CreateWithAttempt(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.orgs.EXPECT().GetOrganizationByID(gomock.Any(), orgID).Return(org, nil)

	resp, err := s.Login(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, resp.Organization)
	assert.Equal(t, org.Name, resp.Organization.Name)
	require.NotNil(t, resp.Organization.Subscription)
	assert.False(t, resp.Organization.Subscription.IsExpired)
	assert.Equal(t, 29, resp.Organization.Subscription.DaysRemaining)
}

func TestAuthService_Login_SessionPersistFailure(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	input := loginInput()

	m.users.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
	m.users.EXPECT().RegisterSuccessfulLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	m.tokens.EXPECT().Issue(user).Return("access", "refresh", time.Now().Add(time.Hour), nil)
	m.sessions.EXPECT().CreateWithAttempt(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	resp, err := s.Login(context.Background(), input)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.NotErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestAuthService_Refresh_Success(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)

	deviceName := "laptop"
	oldSession := &domain.Session{
		ID:           "sess-old",
		UserID:       user.ID,
		RefreshToken: "old-refresh",
		DeviceName:   &deviceName,
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	input := dto.RefreshInput{
		RefreshToken: "old-refresh",
		IPAddress:    "198.51.100.7",
		UserAgent:    "new-agent",
	}

	expiresAt := time.Now().Add(60 * time.Minute)

	m.sessions.EXPECT().GetActiveByRefreshToken(gomock.Any(), "old-refresh").Return(oldSession, nil)
	m.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	m.tokens.EXPECT().Issue(user).Return("new-access", "new-refresh", expiresAt, nil)

	var replacement *domain.Session
	m.sessions.EXPECT().Rotate(gomock.Any(), "sess-old", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, repl *domain.Session) error {
			replacement = repl
			return nil
		})

	resp, err := s.Refresh(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "new-access", resp.AccessToken)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
	assert.Equal(t, expiresAt, resp.ExpiresAt)

	require.NotNil(t, replacement)
	assert.NotEqual(t, oldSession.ID, replacement.ID)
	assert.Equal(t, "new-refresh", replacement.RefreshToken)
	assert.Equal(t, input.IPAddress, replacement.IPAddress)
	assert.Equal(t, input.UserAgent, replacement.UserAgent)
	require.NotNil(t, replacement.DeviceName)
	assert.Equal(t, deviceName, *replacement.DeviceName, "device metadata carries over from the rotated session")
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	s, m := newAuthService(t)

	m.sessions.EXPECT().GetActiveByRefreshToken(gomock.Any(), "never-issued").Return(nil, nil)

	resp, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "never-issued"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
}

func TestAuthService_Refresh_ConcurrentRotationLoses(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)

	oldSession := &domain.Session{ID: "sess-old", UserID: user.ID, RefreshToken: "old-refresh", ExpiresAt: time.Now().Add(time.Hour)}

	m.sessions.EXPECT().GetActiveByRefreshToken(gomock.Any(), "old-refresh").Return(oldSession, nil)
	m.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	m.tokens.EXPECT().Issue(user).Return("new-access", "new-refresh", time.Now().Add(time.Hour), nil)
	// Another request claimed the session between lookup and rotation.
	m.sessions.EXPECT().Rotate(gomock.Any(), "sess-old", gomock.Any()).Return(autherror.ErrInvalidRefreshToken)

	_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "old-refresh"})

	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
}

func TestAuthService_Refresh_InactiveUser(t *testing.T) {
	s, m := newAuthService(t)
	user := activeUser(t)
	user.IsActive = false

	oldSession := &domain.Session{ID: "sess-old", UserID: user.ID, RefreshToken: "old-refresh", ExpiresAt: time.Now().Add(time.Hour)}

	m.sessions.EXPECT().GetActiveByRefreshToken(gomock.Any(), "old-refresh").Return(oldSession, nil)
	m.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

	_, err := s.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "old-refresh"})

	// Same failure as an unknown token; the refresh path is not an oracle.
	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("revokes the active session", func(t *testing.T) {
		s, m := newAuthService(t)
		session := &domain.Session{ID: "sess-1", UserID: "user-123"}

		m.sessions.EXPECT().GetActiveBySessionToken(gomock.Any(), "access-token").Return(session, nil)
		m.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)

		ok, err := s.Logout(context.Background(), "access-token")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second logout is a no-op success", func(t *testing.T) {
		s, m := newAuthService(t)

		m.sessions.EXPECT().GetActiveBySessionToken(gomock.Any(), "access-token").Return(nil, nil)

		ok, err := s.Logout(context.Background(), "access-token")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAuthService_Register_Success(t *testing.T) {
	s, m := newAuthService(t)

	input := dto.RegisterInput{
		Email:     "New.User@Example.com",
		Password:  "Password123",
		FirstName: "Grace",
		LastName:  "Hopper",
	}

	m.users.EXPECT().GetByEmail(gomock.Any(), "new.user@example.com").Return(nil, nil)

	var created *domain.User
	m.users.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			created = u
			return nil
		})

	out, err := s.Register(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", out.Email)
	assert.Equal(t, "Grace Hopper", out.FullName)
	assert.True(t, out.IsActive)
	assert.False(t, out.EmailVerified)

	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(input.Password)))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	s, m := newAuthService(t)

	input := dto.RegisterInput{
		Email:     "taken@example.com",
		Password:  "Password123",
		FirstName: "Grace",
		LastName:  "Hopper",
	}

	m.users.EXPECT().GetByEmail(gomock.Any(), "taken@example.com").Return(&domain.User{ID: "existing"}, nil)

	out, err := s.Register(context.Background(), input)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestAuthService_Register_ValidationFailure(t *testing.T) {
	s, _ := newAuthService(t)

	input := dto.RegisterInput{
		Email:     "not-an-email",
		Password:  "short",
		FirstName: "",
		LastName:  "Hopper",
	}

	out, err := s.Register(context.Background(), input)

	assert.Nil(t, out)
	ve, ok := autherror.AsValidation(err)
	require.True(t, ok)
	// Bad email, too short, no digit... every violated rule is listed.
	assert.GreaterOrEqual(t, len(ve.Reasons), 3)
}
