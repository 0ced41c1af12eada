package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/Yorkamc/GesCo/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Yorkamc/GesCo/internal/auth/domain"
	"github.com/Yorkamc/GesCo/pkg/constant"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenGenerator interface {
	Issue(user *domain.User) (accessToken, refreshToken string, expiresAt time.Time, err error)
	GetAccessTokenExpiry() time.Duration
	VerifyAccessToken(tokenString string) (*AccessTokenClaims, error)
}

// TokenService mints the signed access token and the opaque refresh token.
// The refresh token carries no claims; its only meaning is as a lookup key
// into the session registry.
type TokenService struct {
	Secret            string
	Issuer            string
	Audience          string
	AccessTokenExpiry time.Duration
}

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email          string `json:"email"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
}

func NewTokenService(secret, issuer, audience string, accessMinutes int) *TokenService {
	return &TokenService{
		Secret:            secret,
		Issuer:            issuer,
		Audience:          audience,
		AccessTokenExpiry: time.Duration(accessMinutes) * time.Minute,
	}
}

func (ts *TokenService) Issue(user *domain.User) (string, string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.AccessTokenExpiry)

	orgID := ""
	if user.OrganizationID != nil {
		orgID = *user.OrganizationID
	}

	claims := AccessTokenClaims{
		Email:          user.Email,
		Name:           user.FullName(),
		OrganizationID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    ts.Issuer,
			Audience:  jwt.ClaimStrings{ts.Audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.Secret))
	if err != nil {
		return "", "", time.Time{}, err
	}

	refreshToken, err := newOpaqueToken(constant.RefreshTokenByteLength)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return accessToken, refreshToken, expiresAt, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

// VerifyAccessToken parses and validates the given access token string,
// checking signature, issuer, audience and expiry with zero clock skew.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.Secret), nil
	},
		jwt.WithIssuer(ts.Issuer),
		jwt.WithAudience(ts.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	)

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// newOpaqueToken returns nBytes of entropy, URL-safe base64 encoded.
func newOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex sha-256 digest stored alongside each session.
// Defense in depth only; it is never used as a lookup key.
func HashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
