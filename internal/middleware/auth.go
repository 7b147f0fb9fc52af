package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/logward/logward/internal/httputil"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/pkg/tokens"
)

const claimsKey = contextKey("claims")

// AuthMiddleware gates protected routes on a valid bearer token.
type AuthMiddleware struct {
	tokens *tokens.Manager
}

func NewAuthMiddleware(manager *tokens.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: manager}
}

// RequireAuth verifies the Authorization header and attaches the decoded
// claims to the request context. Any verification failure responds 401
// without calling the next handler.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "Token invalid or expired")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRole wraps RequireAuth and additionally rejects callers whose role
// is not in the allowed set with 403.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.WriteError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			httputil.WriteError(w, http.StatusForbidden, "Access denied")
		})
	}
}

// RequireDataRole is the gate for ordinary data routes: any authenticated
// caller whose role is admin or tenant passes; everything else is 403.
func (m *AuthMiddleware) RequireDataRole(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(models.RoleAdmin, models.RoleTenant)(next)
}

// ClaimsFromContext retrieves the authenticated claims from the request
// context. Returns nil if the request did not pass RequireAuth.
func ClaimsFromContext(ctx context.Context) *tokens.Claims {
	claims, ok := ctx.Value(claimsKey).(*tokens.Claims)
	if !ok {
		return nil
	}
	return claims
}
