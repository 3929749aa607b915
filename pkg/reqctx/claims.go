package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthClaims is what request handling needs from a verified token.
type AuthClaims interface {
	GetUserID() string
	GetRole() string
	GetSessionID() *uuid.UUID
	GetTokenType() string
	IsExpired() bool
}

// WithClaims stores authentication claims in the context.
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext returns nil if the request is not authenticated.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := ctx.Value(keyClaims).(AuthClaims)
	return claims
}

// IsAuthenticated returns true if valid claims exist in the context.
func IsAuthenticated(ctx context.Context) bool {
	claims := ClaimsFromContext(ctx)
	return claims != nil && !claims.IsExpired()
}

// UserIDFromContext extracts the user ID and role from claims.
func UserIDFromContext(ctx context.Context) (id, role string, ok bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return "", "", false
	}
	return claims.GetUserID(), claims.GetRole(), true
}
