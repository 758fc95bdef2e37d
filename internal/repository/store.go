package repository

import (
	"context"
	"errors"
	"fmt"
)

// Store groups the repositories behind a single transactional boundary.
type Store interface {
	Users() UserRepository
	Verifications() VerificationRepository
	// WithTx runs fn against a store bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type postgresStore struct {
	beginner      TxBeginner
	users         UserRepository
	verifications VerificationRepository
}

// NewPostgresStore wires pgx-backed repositories over a pool.
func NewPostgresStore(db TxBeginner) Store {
	return &postgresStore{
		beginner:      db,
		users:         NewUserRepository(db),
		verifications: NewVerificationRepository(db),
	}
}

func (s *postgresStore) Users() UserRepository                 { return s.users }
func (s *postgresStore) Verifications() VerificationRepository { return s.verifications }

func (s *postgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.beginner == nil {
		// already inside a transaction
		return fn(s)
	}

	tx, err := s.beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &postgresStore{
		users:         NewUserRepository(tx),
		verifications: NewVerificationRepository(tx),
	}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit tx", err)
	}
	return nil
}
