// Package auth issues and verifies the service's bearer tokens. Login is a
// single shared secret password; successful logins get a signed, time-limited
// token carrying a fixed subject and a token-type claim.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kaisng/expense-tracker/internal/domain"
)

var (
	// ErrInvalidPassword is returned when the login password does not match.
	ErrInvalidPassword = errors.New("auth: invalid password")
	// ErrInvalidToken is returned for malformed, expired or wrong-type tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

const tokenTypeAccess = "access"

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type tokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 tokens against the static password.
type Service struct {
	password string
	secret   []byte
	expiry   time.Duration
	now      func() time.Time
}

// NewService creates an auth service.
func NewService(password, secret string, expiry time.Duration) *Service {
	return &Service{
		password: password,
		secret:   []byte(secret),
		expiry:   expiry,
		now:      time.Now,
	}
}

// WithClock overrides the service's notion of now. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Expiry returns the configured token lifetime.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// Authenticate checks the password and returns a signed access token.
func (s *Service) Authenticate(password string) (string, error) {
	if password != s.password {
		return "", ErrInvalidPassword
	}

	now := s.now()
	claims := tokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   domain.DefaultUserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

// VerifyToken parses and validates an access token. Anything that is not a
// live HS256 access token fails with ErrInvalidToken.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.TokenType != tokenTypeAccess {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
