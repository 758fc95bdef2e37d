package auth

import (
	"context"

	"github.com/spec-kit/eats-backend/internal/domain"
)

type currentUserKey struct{}

// WithCurrentUser returns a context carrying the authenticated user.
func WithCurrentUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user)
}

// CurrentUser retrieves the authenticated user, if any.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(currentUserKey{}).(*domain.User)
	return user, ok && user != nil
}
