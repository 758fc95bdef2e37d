package gql

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/spec-kit/eats-backend/internal/auth"
	"github.com/spec-kit/eats-backend/internal/domain"
	"github.com/spec-kit/eats-backend/internal/service"
	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

// AccountService is the account surface exposed over GraphQL.
type AccountService interface {
	CreateAccount(ctx context.Context, in service.CreateAccountInput) service.CoreOutput
	Login(ctx context.Context, in service.LoginInput) service.LoginOutput
	EditProfile(ctx context.Context, userID string, in service.EditProfileInput) service.CoreOutput
	VerifyEmail(ctx context.Context, code string) service.CoreOutput
	FindByID(ctx context.Context, id string) service.UserProfileOutput
}

// Resolver maps GraphQL fields onto the account service.
type Resolver struct {
	accounts AccountService
}

// NewResolver creates a Resolver.
func NewResolver(accounts AccountService) *Resolver {
	return &Resolver{accounts: accounts}
}

// Me returns the caller resolved from the identity header.
func (r *Resolver) Me(p graphql.ResolveParams) (interface{}, error) {
	user, ok := auth.CurrentUser(p.Context)
	if !ok {
		return nil, apperrors.NewForbidden(auth.ForbiddenMessage)
	}
	return userMap(user), nil
}

// UserProfile loads a user by id into a UserProfileOutput envelope.
func (r *Resolver) UserProfile(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := p.Args["userId"].(string)
	out := r.accounts.FindByID(p.Context, userID)

	result := coreMap(out.CoreOutput)
	result["user"] = nil
	if out.User != nil {
		result["user"] = userMap(out.User)
	}
	return result, nil
}

// CreateAccount registers an account from CreateAccountInput.
func (r *Resolver) CreateAccount(p graphql.ResolveParams) (interface{}, error) {
	input := inputMap(p)
	out := r.accounts.CreateAccount(p.Context, service.CreateAccountInput{
		Email:    stringField(input, "email"),
		Password: stringField(input, "password"),
		Role:     roleField(input, "role"),
	})
	return coreMap(out), nil
}

// Login exchanges credentials for a token.
func (r *Resolver) Login(p graphql.ResolveParams) (interface{}, error) {
	input := inputMap(p)
	out := r.accounts.Login(p.Context, service.LoginInput{
		Email:    stringField(input, "email"),
		Password: stringField(input, "password"),
	})

	result := coreMap(out.CoreOutput)
	result["token"] = optional(out.Token)
	return result, nil
}

// EditProfile applies EditProfileInput to the caller's own account.
func (r *Resolver) EditProfile(p graphql.ResolveParams) (interface{}, error) {
	user, ok := auth.CurrentUser(p.Context)
	if !ok {
		return nil, apperrors.NewForbidden(auth.ForbiddenMessage)
	}
	input := inputMap(p)
	out := r.accounts.EditProfile(p.Context, user.ID, service.EditProfileInput{
		Email:    optionalField(input, "email"),
		Password: optionalField(input, "password"),
	})
	return coreMap(out), nil
}

// VerifyEmail consumes a verification code.
func (r *Resolver) VerifyEmail(p graphql.ResolveParams) (interface{}, error) {
	out := r.accounts.VerifyEmail(p.Context, stringField(inputMap(p), "code"))
	return coreMap(out), nil
}

func inputMap(p graphql.ResolveParams) map[string]interface{} {
	input, _ := p.Args["input"].(map[string]interface{})
	return input
}

func stringField(input map[string]interface{}, key string) string {
	s, _ := input[key].(string)
	return s
}

// optionalField returns nil for both an omitted and an explicit null field.
func optionalField(input map[string]interface{}, key string) *string {
	s, ok := input[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func roleField(input map[string]interface{}, key string) domain.UserRole {
	switch v := input[key].(type) {
	case domain.UserRole:
		return v
	case string:
		return domain.UserRole(v)
	}
	return ""
}

func coreMap(out service.CoreOutput) map[string]interface{} {
	return map[string]interface{}{
		"ok":    out.OK,
		"error": optional(out.Error),
	}
}

func userMap(user *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"role":     user.Role,
		"verified": user.Verified,
	}
}

func optional(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
