package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/eats-backend/internal/domain"
	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

func TestGuard_Authorize(t *testing.T) {
	guard := NewGuard(Policy{
		"me":               {RoleAny},
		"createRestaurant": {domain.RoleOwner},
		"pickupOrder":      {domain.RoleDelivery, domain.RoleOwner},
		"locked":           {},
	})

	client := &domain.User{ID: "c", Role: domain.RoleClient}
	owner := &domain.User{ID: "o", Role: domain.RoleOwner}
	rider := &domain.User{ID: "d", Role: domain.RoleDelivery}

	tests := []struct {
		name      string
		operation string
		user      *domain.User
		allowed   bool
	}{
		{"public anonymous", "login", nil, true},
		{"public authenticated", "login", client, true},
		{"any anonymous", "me", nil, false},
		{"any client", "me", client, true},
		{"any owner", "me", owner, true},
		{"owner only as owner", "createRestaurant", owner, true},
		{"owner only as client", "createRestaurant", client, false},
		{"owner only anonymous", "createRestaurant", nil, false},
		{"multi role delivery", "pickupOrder", rider, true},
		{"multi role client", "pickupOrder", client, false},
		{"empty role list", "locked", owner, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = WithCurrentUser(ctx, tt.user)
			}

			err := guard.Authorize(ctx, tt.operation)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
			assert.EqualError(t, err, ForbiddenMessage)
		})
	}
}

func TestGuard_PolicyIsCopied(t *testing.T) {
	policy := Policy{"me": {RoleAny}}
	guard := NewGuard(policy)
	delete(policy, "me")

	assert.False(t, guard.Public("me"))
	assert.True(t, guard.Public("login"))
}

func TestCurrentUser_NilUserIsAnonymous(t *testing.T) {
	ctx := WithCurrentUser(context.Background(), nil)
	_, ok := CurrentUser(ctx)
	assert.False(t, ok)
}
