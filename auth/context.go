// Package auth issues and verifies the service's own JWT access tokens and
// provides request context helpers for verified claims.
package auth

import "context"

type ctxKey int

const claimsKey ctxKey = iota

// Claims contains the verified token details we care about.
type Claims struct {
	UserID int64
	Email  string
	Plan   string
}

// WithClaims stores auth claims in a context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns claims from a context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
