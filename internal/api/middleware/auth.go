package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/dom/habit-proofs/internal/api/httputil"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"

	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"
)

// TokenValidator resolves a session token to its user. Rejected tokens
// return an error matching domain.ErrUnauthenticated.
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Auth rejects requests without a valid session.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				httputil.WriteErrorResponse(w, http.StatusUnauthorized, httputil.CodeUnauthenticated, "Authentication required", nil)
				return
			}

			userID, err := validator.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					log.Printf("ERROR [middleware.Auth] failed to resolve session: %v", err)
					httputil.WriteErrorResponse(w, http.StatusInternalServerError, httputil.CodeInternal, "Internal server error", err)
					return
				}
				log.Printf("ERROR [middleware.Auth] token validation failed: %v", err)
				httputil.WriteErrorResponse(w, http.StatusUnauthorized, httputil.CodeUnauthenticated, "Invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when a valid session is present and lets
// anonymous requests through otherwise.
func OptionalAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r); token != "" {
				if userID, err := validator.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest returns the bearer token, falling back to the session
// cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
