// Package authctx carries the authenticated caller through a request context.
//
//	ctx = authctx.Set(ctx, principal)
//	p, ok := authctx.Get[*auth.Principal](ctx)
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when no caller is stored in the context.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores the caller in ctx.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get returns the stored caller when present and of type T.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

// GetOrError is Get returning ErrNoClaims when absent.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		return claims, ErrNoClaims
	}
	return claims, nil
}
