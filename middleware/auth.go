package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dosada05/faculty-league/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// SessionCookieName is the cookie set by the login handlers.
const SessionCookieName = "session"

// TokenParser turns a session token into the caller's identity.
type TokenParser interface {
	ParseToken(tokenString string) (models.Identity, error)
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Identify attaches the caller's identity to the request context. Requests
// without a valid token continue anonymously; RequireAdmin decides later.
func Identify(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := parser.ParseToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin answers 401 for anonymous callers and 403 for non-admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentityFromContext(r.Context())
		if identity.UserID <= 0 {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !identity.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// GetIdentityFromContext returns the zero (anonymous) identity when none is set.
func GetIdentityFromContext(ctx context.Context) models.Identity {
	identity, _ := ctx.Value(identityContextKey).(models.Identity)
	return identity
}
