package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/auth"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/repository"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

type AuthMiddleware struct {
	userRepo  repository.UserRepository
	jwtSecret string
	jwtIssuer string
}

func NewAuthMiddleware(userRepo repository.UserRepository, jwtSecret, jwtIssuer string) *AuthMiddleware {
	return &AuthMiddleware{userRepo: userRepo, jwtSecret: jwtSecret, jwtIssuer: jwtIssuer}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		claims, err := auth.ParseAccessToken(token, m.jwtSecret, m.jwtIssuer)
		if err != nil {
			if err == auth.ErrTokenExpired {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Token expired",
				})
				return
			}
			log.Warn().Msg("auth middleware: invalid token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		// The user is loaded fresh so a role or group change applies on the
		// next request, not at the next login.
		user, err := m.userRepo.FindByID(r.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: user lookup failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
			return
		}
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole guards a route subtree to the given roles. It runs after the
// auth handler, so a missing user means a wiring bug and is treated as
// unauthorized rather than a panic.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Missing authentication token",
				})
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn().
				Str("userId", user.ID).
				Str("role", string(user.Role)).
				Str("path", r.URL.Path).
				Msg("forbidden: insufficient role")
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Insufficient permissions",
			})
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// EventSource cannot set headers, so the event stream authenticates
	// through a query parameter.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
