package middleware

import (
	"context"
	"net/http"
	"strings"

	"ecoride/internal/data/entity"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (utils.Identity, error)
}

// Provisioner maps an identity to its local user, creating one when needed.
type Provisioner interface {
	Provision(ctx context.Context, identity utils.Identity) (*entity.User, error)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authenticate verifies the bearer token and stores the identity in the
// request context. allowQuery also accepts ?token= for clients that cannot
// set headers, such as browser WebSocket connections.
func Authenticate(tokens TokenVerifier, allowQuery bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok && allowQuery {
				token = r.URL.Query().Get("token")
				ok = token != ""
			}
			if !ok {
				utils.ResponseUnauthorized(w, "Missing or malformed authorization token")
				return
			}

			identity, err := tokens.Verify(token)
			if err != nil {
				log.Warn("Token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetIdentityContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Provision resolves the authenticated identity to a local user and stores
// its id and role. Must run after Authenticate.
func Provision(users Provisioner, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := utils.GetIdentityFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			user, err := users.Provision(r.Context(), identity)
			if err != nil {
				log.Error("Failed to provision user",
					zap.String("subject", identity.Subject),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			if user.IsSuspended {
				log.Warn("Suspended user rejected", zap.Int64("user_id", user.ID))
				utils.ResponseForbidden(w, "Account suspended")
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only for the listed roles.
func RequireRole(log *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			for _, allowed := range roles {
				if entity.UserRole(role) == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			userID, _ := utils.GetUserIDFromContext(r.Context())
			log.Warn("Role check failed",
				zap.Int64("user_id", userID),
				zap.String("role", role),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "Insufficient role")
		})
	}
}
