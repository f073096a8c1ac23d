package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Roger-dornelles/pizzeria-project/internal/auth"
	"github.com/Roger-dornelles/pizzeria-project/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	userIDKey    contextKey = "userID"
	userEmailKey contextKey = "userEmail"
)

// RequireAuth returns middleware that validates a Bearer JWT and injects
// the caller's id and email into the request context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Token não informado")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				response.Unauthorized(w, "Formato do token inválido")
				return
			}

			claims, err := auth.ParseToken(jwtSecret, token)
			if err != nil {
				response.Unauthorized(w, "Token inválido ou expirado")
				return
			}
			userID, _ := claims.UserID()

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, claims.Email)))
		})
	}
}

// WithUser returns a copy of ctx carrying the authenticated caller.
func WithUser(ctx context.Context, userID int64, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// UserEmailFromContext extracts the authenticated user's email from the request context.
func UserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok
}
