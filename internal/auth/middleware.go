package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys so that no other
// package can read or shadow the values this package stores.
type contextKey string

const userIDKey contextKey = "userID"

const unauthorizedBody = `{"statusCode":401,"error":"unauthorized","message":"valid authentication required","success":false}`

// RequireAuth guards protected routes. It reads the access token from the
// "accessToken" HttpOnly cookie or, failing that, from an
// "Authorization: Bearer" header, validates it, and stores the user id in
// the request context. Missing or invalid tokens end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(unauthorizedBody))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's id set by
// RequireAuth. Returns ("", false) on anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractClaims finds the access token in the request and validates it.
// Cookie first (browser clients), then the Authorization header (API
// clients); both carry the same JWT.
func extractClaims(r *http.Request, tokens *TokenService) (*AccessClaims, error) {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return tokens.ValidateAccessToken(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return tokens.ValidateAccessToken(token)
	}

	return nil, http.ErrNoCookie
}
