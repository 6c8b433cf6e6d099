// Package auth provides token issuance/verification and password hashing
// for the user API, plus the HTTP middleware that guards protected routes.
//
// Two kinds of JWT are issued:
//
//   - Access token: short-lived, carries the user's id, email, username and
//     full name. Sent on every API call.
//   - Refresh token: long-lived, carries only the user's id. Exchanged for a
//     fresh pair at /refresh-token. Exactly one refresh token is active per
//     user at a time (the one persisted on the user record).
//
// The two kinds are signed with distinct secrets, so a leaked access secret
// cannot be used to forge refresh tokens or vice versa.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "vidstream"

// Typed verification failures. Callers that need to distinguish the cases
// (e.g. to return a precise error message for access tokens) match with
// errors.Is; the refresh flow collapses all three into a single 401.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenInvalid   = errors.New("auth: token invalid")
)

// AccessClaims is the payload signed into access tokens. The user's id
// lives in the standard "sub" claim.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// refreshClaims carries only the standard claims; the user id in "sub" is
// the whole payload of a refresh token.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies both token kinds. Construct once at
// startup and share; it is safe for concurrent use.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService validates the configured secrets and lifetimes.
// Both secrets must be at least 16 characters and must differ from each
// other; the access lifetime must be shorter than the refresh lifetime.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < 16 || len(refreshSecret) < 16 {
		return nil, errors.New("auth: token secrets must be at least 16 characters")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	if accessTTL >= refreshTTL {
		return nil, errors.New("auth: access token lifetime must be shorter than refresh token lifetime")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime (used for cookie
// expiry, which should match the token's own expiry).
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken signs a short-lived access token for the given user.
func (s *TokenService) GenerateAccessToken(userID, email, username, fullName string) (string, error) {
	now := time.Now()
	c := AccessClaims{
		Email:    email,
		Username: username,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken signs a long-lived refresh token carrying only the
// user's id. Every token carries a fresh "jti"; without it, two tokens
// issued within the same second would be byte-identical ("iat" and "exp"
// have one-second resolution) and rotation would hand back the token it
// was supposed to replace.
func (s *TokenService) GenerateRefreshToken(userID string) (string, error) {
	now := time.Now()
	c := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("auth: signing refresh token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature, expiry and issuer against the
// access secret and returns the decoded claims.
func (s *TokenService) ValidateAccessToken(tokenStr string) (*AccessClaims, error) {
	c := &AccessClaims{}
	if err := s.parse(tokenStr, c, s.accessSecret); err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return c, nil
}

// ValidateRefreshToken verifies a refresh token against the refresh secret
// and returns the user id it carries.
func (s *TokenService) ValidateRefreshToken(tokenStr string) (string, error) {
	c := &refreshClaims{}
	if err := s.parse(tokenStr, c, s.refreshSecret); err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", ErrTokenInvalid
	}
	return c.Subject, nil
}

// parse runs the shared verification pipeline and translates the jwt
// library's errors into this package's typed failures.
func (s *TokenService) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrTokenMalformed
		default:
			return ErrTokenInvalid
		}
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
