package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/auth"
	"github.com/spec-kit/eats-backend/internal/domain"
	"github.com/spec-kit/eats-backend/internal/events"
	"github.com/spec-kit/eats-backend/internal/repository"
	apperrors "github.com/spec-kit/eats-backend/pkg/util"
)

// TokenIssuer signs identity tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// CoreOutput is the envelope shared by every account operation.
type CoreOutput struct {
	OK    bool
	Error *string
}

// LoginOutput carries the issued token on success.
type LoginOutput struct {
	CoreOutput
	Token *string
}

// UserProfileOutput carries the requested user on success.
type UserProfileOutput struct {
	CoreOutput
	User *domain.User
}

type CreateAccountInput struct {
	Email    string
	Password string
	Role     domain.UserRole
}

type LoginInput struct {
	Email    string
	Password string
}

// EditProfileInput holds optional profile changes; nil fields are left untouched.
type EditProfileInput struct {
	Email    *string
	Password *string
}

// AccountService coordinates signup, login, profile edits and email verification.
type AccountService struct {
	store      repository.Store
	tokens     TokenIssuer
	publisher  events.Publisher
	logger     *zap.Logger
	bcryptCost int
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	Store      repository.Store
	Tokens     TokenIssuer
	Publisher  events.Publisher
	Logger     *zap.Logger
	BcryptCost int
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		publisher:  deps.Publisher,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// CreateAccount registers a user and sends the first verification code.
func (s *AccountService) CreateAccount(ctx context.Context, in CreateAccountInput) CoreOutput {
	verification, err := s.createAccount(ctx, in)
	if err != nil {
		return s.fail(ctx, "create account", msgCreateAccountFailed, err)
	}
	s.requestVerification(ctx, in.Email, verification.Code)
	return success()
}

func (s *AccountService) createAccount(ctx context.Context, in CreateAccountInput) (*domain.Verification, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("Email and password are required.", nil)
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role.", map[string]any{"role": string(in.Role)})
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict(MsgEmailTaken, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	verification := domain.NewVerification(user.ID)

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict(MsgEmailTaken, nil)
			}
			return err
		}
		return tx.Verifications().Create(ctx, verification)
	})
	if err != nil {
		return nil, err
	}
	return verification, nil
}

// Login checks credentials and issues an identity token.
func (s *AccountService) Login(ctx context.Context, in LoginInput) LoginOutput {
	token, err := s.login(ctx, in)
	if err != nil {
		return LoginOutput{CoreOutput: s.fail(ctx, "login", msgLoginFailed, err)}
	}
	return LoginOutput{CoreOutput: success(), Token: &token}
}

func (s *AccountService) login(ctx context.Context, in LoginInput) (string, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(in.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NewNotFound(MsgLoginUserNotFound)
	}
	if err != nil {
		return "", err
	}

	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", apperrors.NewUnauthorized(MsgWrongPassword)
		}
		return "", err
	}
	return s.tokens.Issue(user.ID)
}

// EditProfile applies the provided changes. A new email resets the verified
// flag and replaces any pending verification.
func (s *AccountService) EditProfile(ctx context.Context, userID string, in EditProfileInput) CoreOutput {
	user, verification, err := s.editProfile(ctx, userID, in)
	if err != nil {
		return s.fail(ctx, "edit profile", msgEditProfileFailed, err)
	}
	if verification != nil {
		s.requestVerification(ctx, user.Email, verification.Code)
	}
	return success()
}

func (s *AccountService) editProfile(ctx context.Context, userID string, in EditProfileInput) (*domain.User, *domain.Verification, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewNotFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	var verification *domain.Verification
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, nil, apperrors.NewValidationError("Email must not be empty.", nil)
		}
		if email != user.Email {
			if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
				return nil, nil, apperrors.NewConflict(MsgEmailTaken, nil)
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, nil, err
			}
			user.Email = email
			user.Verified = false
			verification = domain.NewVerification(user.ID)
		}
	}

	if in.Password != nil {
		if *in.Password == "" {
			return nil, nil, apperrors.NewValidationError("Password must not be empty.", nil)
		}
		// An unchanged password keeps its stored hash.
		if auth.ComparePassword(user.PasswordHash, *in.Password) != nil {
			hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
			if err != nil {
				return nil, nil, err
			}
			user.PasswordHash = hash
		}
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Update(ctx, user); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return apperrors.NewConflict(MsgEmailTaken, nil)
			case errors.Is(err, repository.ErrNotFound):
				return apperrors.NewNotFound(MsgUserNotFound)
			}
			return err
		}
		if verification == nil {
			return nil
		}
		if err := tx.Verifications().DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}
		return tx.Verifications().Create(ctx, verification)
	})
	if err != nil {
		return nil, nil, err
	}
	return user, verification, nil
}

// VerifyEmail consumes a verification code and marks its owner verified.
// A code can be consumed once.
func (s *AccountService) VerifyEmail(ctx context.Context, code string) CoreOutput {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		verification, err := tx.Verifications().GetByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(MsgVerificationNotFound)
		}
		if err != nil {
			return err
		}
		if err := tx.Users().MarkVerified(ctx, verification.UserID); err != nil {
			return err
		}
		// Zero rows means a concurrent request consumed the code first.
		if err := tx.Verifications().DeleteByID(ctx, verification.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound(MsgVerificationNotFound)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, "verify email", msgVerifyEmailFailed, err)
	}
	return success()
}

// FindByID loads a user profile.
func (s *AccountService) FindByID(ctx context.Context, id string) UserProfileOutput {
	user, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		err = apperrors.NewNotFound(MsgUserNotFound)
	}
	if err != nil {
		return UserProfileOutput{CoreOutput: s.fail(ctx, "find user", msgFindUserFailed, err)}
	}
	return UserProfileOutput{CoreOutput: success(), User: user}
}

// requestVerification queues the verification mail. Failures are logged only.
func (s *AccountService) requestVerification(ctx context.Context, email, code string) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewEvent(events.EventVerificationRequested, events.VerificationRequestedPayload{
		Email: email,
		Code:  code,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Warn("queue verification email", zap.String("email", email), zap.Error(err))
	}
}

// fail converts an error into an envelope. Expected failures keep their
// message; anything else is logged and reported with the fallback message.
func (s *AccountService) fail(ctx context.Context, op, fallback string, err error) CoreOutput {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) && domainErr.Code != apperrors.CodeInternal {
		return failure(domainErr.Message)
	}
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if user, ok := auth.CurrentUser(ctx); ok {
		fields = append(fields, zap.String("user_id", user.ID))
	}
	s.logger.Error("account operation failed", fields...)
	return failure(fallback)
}

func success() CoreOutput {
	return CoreOutput{OK: true}
}

func failure(message string) CoreOutput {
	return CoreOutput{OK: false, Error: &message}
}
