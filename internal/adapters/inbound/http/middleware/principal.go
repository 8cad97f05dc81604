package middleware

import (
	"context"

	"taskflow/internal/application/dto"
)

type principalContextKey struct{}

func WithPrincipal(ctx context.Context, principal dto.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func PrincipalFromContext(ctx context.Context) (dto.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(dto.Principal)
	return principal, ok
}
