package http

import (
	"net/http"
	"strings"

	"rentease-backend/internal/security"
)

// AuthMiddleware validates the bearer token and attaches the principal to
// the request context.
func AuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
				return
			}
			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), claims)))
		})
	}
}

// RequireCapability gates operator-only endpoints on an explicit claim
// carried by the principal. There is no name-based fallback.
func RequireCapability(capability string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := PrincipalFromContext(r.Context())
		if claims == nil || !claims.HasCapability(capability) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "insufficient permissions"})
			return
		}
		next(w, r)
	}
}
