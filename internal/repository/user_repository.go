package repository

import (
	"context"

	"github.com/spec-kit/eats-backend/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	MarkVerified(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, role, verified, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, password_hash, role, verified)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Verified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapError("create user", err)
}

// Update persists every mutable column as given; password_hash is stored verbatim.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, password_hash=$2, role=$3, verified=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.db.Exec(ctx, query,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Verified,
		user.ID,
	)
	if err != nil {
		return mapError("update user", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("update user", ErrNotFound)
	}
	return nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET verified=TRUE, updated_at=NOW() WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return mapError("mark user verified", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("mark user verified", ErrNotFound)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("get user by id", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapError("get user by email", err)
	}
	return user, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = domain.UserRole(role)
	return &user, nil
}
