package auth

import (
	"errors"
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-at-least-16-chars"
	testRefreshSecret = "refresh-secret-at-least-16-chars"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name                   string
		accessSec, refreshSec  string
		accessTTL, refreshTTL  time.Duration
	}{
		{"short access secret", "short", testRefreshSecret, time.Minute, time.Hour},
		{"short refresh secret", testAccessSecret, "short", time.Minute, time.Hour},
		{"identical secrets", testAccessSecret, testAccessSecret, time.Minute, time.Hour},
		{"zero access ttl", testAccessSecret, testRefreshSecret, 0, time.Hour},
		{"access ttl not shorter", testAccessSecret, testRefreshSecret, time.Hour, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenService(tt.accessSec, tt.refreshSec, tt.accessTTL, tt.refreshTTL); err == nil {
				t.Error("NewTokenService() accepted invalid config")
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAccessToken("user-1", "alice@example.com", "alice", "Alice Example")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ts.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Email != "alice@example.com" || claims.Username != "alice" || claims.FullName != "Alice Example" {
		t.Errorf("claims = %+v, want alice's identity", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateRefreshToken("user-2")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	userID, err := ts.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if userID != "user-2" {
		t.Errorf("userID = %q, want %q", userID, "user-2")
	}
}

func TestTokensAreUniquePerIssuance(t *testing.T) {
	ts := newTestTokenService(t)

	// Issued back to back, well inside one second: "iat" and "exp" alone
	// cannot tell the tokens apart, only the per-issuance "jti" can. A
	// repeat here would make refresh rotation hand back the token it was
	// meant to replace.
	first, err := ts.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	second, err := ts.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	if first == second {
		t.Error("two refresh tokens issued back to back are identical")
	}

	accessA, _ := ts.GenerateAccessToken("user-1", "a@example.com", "a", "A")
	accessB, _ := ts.GenerateAccessToken("user-1", "a@example.com", "a", "A")
	if accessA == accessB {
		t.Error("two access tokens issued back to back are identical")
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	ts := newTestTokenService(t)

	access, _ := ts.GenerateAccessToken("user-1", "a@example.com", "a", "A")
	refresh, _ := ts.GenerateRefreshToken("user-1")

	// An access token must not verify as a refresh token: different secret.
	if _, err := ts.ValidateRefreshToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateRefreshToken(access token) error = %v, want ErrTokenInvalid", err)
	}
	if _, err := ts.ValidateAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateAccessToken(refresh token) error = %v, want ErrTokenInvalid", err)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	// A service whose access TTL already elapsed by the time we validate.
	ts, err := NewTokenService(testAccessSecret, testRefreshSecret, time.Millisecond, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.GenerateAccessToken("user-1", "a@example.com", "a", "A")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := ts.ValidateAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccessToken(expired) error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_MalformedToken(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.ValidateAccessToken("not-a-jwt"); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("ValidateAccessToken(garbage) error = %v, want ErrTokenMalformed", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("another-access-secret-16+", "another-refresh-secret-16+", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := ts.GenerateAccessToken("user-1", "a@example.com", "a", "A")

	if _, err := other.ValidateAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateAccessToken(foreign token) error = %v, want ErrTokenInvalid", err)
	}
}
