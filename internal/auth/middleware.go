package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/domain"
	"github.com/spec-kit/eats-backend/internal/repository"
	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

// HeaderName carries the caller's token.
const HeaderName = "X-JWT"

// TokenVerifier resolves a token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder loads users by id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware resolves the caller from the identity header. It never rejects
// on its own; authorization is left to the Guard.
type AuthMiddleware struct {
	tokens TokenVerifier
	users  UserFinder
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier, users UserFinder, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger}
}

// Handle attaches the current user to the request context when the header holds a valid token.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(HeaderName))
	if token == "" {
		return c.Next()
	}

	userID, err := m.tokens.Verify(token)
	if err != nil {
		m.logger.Debug("ignoring invalid identity token", zap.Error(err))
		return c.Next()
	}

	ctx := c.UserContext()
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.logger.Debug("token subject no longer exists", zap.String("user_id", userID))
			return c.Next()
		}
		return apperrors.MapError(err)
	}

	c.SetUserContext(WithCurrentUser(ctx, user))
	return c.Next()
}
