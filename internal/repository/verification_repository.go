package repository

import (
	"context"

	"github.com/spec-kit/eats-backend/internal/domain"
)

// VerificationRepository manages pending email verifications.
type VerificationRepository interface {
	Create(ctx context.Context, v *domain.Verification) error
	GetByCode(ctx context.Context, code string) (*domain.Verification, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

type verificationRepository struct {
	db DBTX
}

// NewVerificationRepository constructs repository.
func NewVerificationRepository(db DBTX) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	const query = `
        INSERT INTO verifications (id, code, user_id)
        VALUES ($1,$2,$3)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		v.ID,
		v.Code,
		v.UserID,
	).Scan(&v.CreatedAt)
	return mapError("create verification", err)
}

func (r *verificationRepository) GetByCode(ctx context.Context, code string) (*domain.Verification, error) {
	const query = `
        SELECT id, code, user_id, created_at
        FROM verifications WHERE code=$1`
	var v domain.Verification
	if err := r.db.QueryRow(ctx, query, code).Scan(
		&v.ID,
		&v.Code,
		&v.UserID,
		&v.CreatedAt,
	); err != nil {
		return nil, mapError("get verification", err)
	}
	return &v, nil
}

// DeleteByID fails with ErrNotFound when nothing was deleted, which makes
// consumption single-use even under concurrent callers.
func (r *verificationRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM verifications WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return mapError("delete verification", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("delete verification", ErrNotFound)
	}
	return nil
}

func (r *verificationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	const query = `DELETE FROM verifications WHERE user_id=$1`
	_, err := r.db.Exec(ctx, query, userID)
	return mapError("delete user verifications", err)
}
