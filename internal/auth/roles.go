package auth

import (
	"context"

	"github.com/spec-kit/eats-backend/internal/domain"
	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

// RoleAny admits every authenticated user regardless of role.
const RoleAny domain.UserRole = "Any"

// ForbiddenMessage is the message of every guard rejection.
const ForbiddenMessage = "Forbidden resource"

// Policy maps operation names to the roles allowed to invoke them.
// Operations missing from the table are public.
type Policy map[string][]domain.UserRole

// Guard enforces a Policy against the current user carried by the context.
type Guard struct {
	policy Policy
}

// NewGuard copies the policy so later edits to the caller's map have no effect.
func NewGuard(policy Policy) *Guard {
	copied := make(Policy, len(policy))
	for op, roles := range policy {
		copied[op] = append([]domain.UserRole(nil), roles...)
	}
	return &Guard{policy: copied}
}

// Authorize returns a FORBIDDEN DomainError when the operation declares roles
// and the caller is anonymous or holds none of them.
func (g *Guard) Authorize(ctx context.Context, operation string) error {
	allowed, declared := g.policy[operation]
	if !declared {
		return nil
	}

	user, ok := CurrentUser(ctx)
	if !ok {
		return apperrors.NewForbidden(ForbiddenMessage)
	}
	for _, role := range allowed {
		if role == RoleAny || role == user.Role {
			return nil
		}
	}
	return apperrors.NewForbidden(ForbiddenMessage)
}

// Public reports whether the operation bypasses the guard.
func (g *Guard) Public(operation string) bool {
	_, declared := g.policy[operation]
	return !declared
}
