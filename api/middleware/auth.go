package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"whisperline/auth"
	"whisperline/repositories"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware resolves the session cookie to a full user before any
// core operation runs. The core itself never parses tokens.
type AuthMiddleware struct {
	issuer auth.TokenIssuer
	users  repositories.IUserRepository
}

func NewAuthMiddleware(issuer auth.TokenIssuer, users repositories.IUserRepository) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, users: users}
}

// RequireAuth rejects requests without a valid session cookie and injects
// the resolved user into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			unauthorized(w, "no token provided")
			return
		}

		claims, err := m.issuer.Validate(cookie.Value)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		user, err := m.users.GetUserByID(claims.UserID)
		if err != nil {
			unauthorized(w, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user, or ok=false when the
// handler runs outside RequireAuth.
func UserFromContext(ctx context.Context) (repositories.User, bool) {
	user, ok := ctx.Value(userContextKey).(repositories.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
