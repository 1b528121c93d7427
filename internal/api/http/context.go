package http

import (
	"context"

	"rentease-backend/internal/security"
)

type contextKey string

const principalKey contextKey = "principal"

func withPrincipal(ctx context.Context, claims *security.UserClaims) context.Context {
	return context.WithValue(ctx, principalKey, claims)
}

// PrincipalFromContext returns the authenticated principal, or nil on
// unauthenticated routes.
func PrincipalFromContext(ctx context.Context) *security.UserClaims {
	claims, _ := ctx.Value(principalKey).(*security.UserClaims)
	return claims
}
