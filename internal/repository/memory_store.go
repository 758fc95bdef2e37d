package repository

import (
	"context"
	"fmt"
	"time"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/spec-kit/eats-backend/internal/domain"
)

const (
	usersTable         = "users"
	verificationsTable = "verifications"
)

// memorySchema mirrors the unique constraints of the Postgres schema.
var memorySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		usersTable: {
			Name: usersTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id":    {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				"email": {Name: "email", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Email"}},
			},
		},
		verificationsTable: {
			Name: verificationsTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id":      {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				"code":    {Name: "code", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Code"}},
				"user_id": {Name: "user_id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "UserID"}},
			},
		},
	},
}

type memoryStore struct {
	db  *memdb.MemDB
	txn *memdb.Txn
}

// NewMemoryStore returns a process-local Store backed by go-memdb. Writers are
// serialized by memdb; WithTx aborts the write transaction when fn fails.
func NewMemoryStore() Store {
	db, err := memdb.NewMemDB(memorySchema)
	if err != nil {
		panic(fmt.Sprintf("memory store schema: %v", err))
	}
	return &memoryStore{db: db}
}

func (s *memoryStore) Users() UserRepository                 { return memoryUsers{s} }
func (s *memoryStore) Verifications() VerificationRepository { return memoryVerifications{s} }

func (s *memoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.txn != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.Txn(true)
	if err := fn(&memoryStore{db: s.db, txn: txn}); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// write runs fn in the surrounding transaction or in a fresh one.
func (s *memoryStore) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(true)
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func (s *memoryStore) read(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

// first returns the object stored under a unique index value, or nil.
func first(txn *memdb.Txn, table, index, value string) (interface{}, error) {
	obj, err := txn.First(table, index, value)
	if err != nil {
		return nil, fmt.Errorf("lookup %s.%s: %w", table, index, err)
	}
	return obj, nil
}

type memoryUsers struct {
	s *memoryStore
}

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	return r.s.write(func(txn *memdb.Txn) error {
		if existing, err := first(txn, usersTable, "id", user.ID); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("create user: %w: users_pkey", ErrDuplicate)
		}
		if existing, err := first(txn, usersTable, "email", user.Email); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("create user: %w: users_email_key", ErrDuplicate)
		}

		now := time.Now().UTC()
		user.CreatedAt = now
		user.UpdatedAt = now
		stored := *user
		return txn.Insert(usersTable, &stored)
	})
}

func (r memoryUsers) Update(_ context.Context, user *domain.User) error {
	return r.s.write(func(txn *memdb.Txn) error {
		current, err := first(txn, usersTable, "id", user.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("update user: %w", ErrNotFound)
		}
		owner, err := first(txn, usersTable, "email", user.Email)
		if err != nil {
			return err
		}
		if owner != nil && owner.(*domain.User).ID != user.ID {
			return fmt.Errorf("update user: %w: users_email_key", ErrDuplicate)
		}

		user.UpdatedAt = time.Now().UTC()
		stored := *user
		return txn.Insert(usersTable, &stored)
	})
}

func (r memoryUsers) MarkVerified(_ context.Context, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		current, err := first(txn, usersTable, "id", id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("mark user verified: %w", ErrNotFound)
		}
		updated := *current.(*domain.User)
		updated.Verified = true
		updated.UpdatedAt = time.Now().UTC()
		return txn.Insert(usersTable, &updated)
	})
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.get("id", id, "get user by id")
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.get("email", email, "get user by email")
}

func (r memoryUsers) get(index, value, op string) (*domain.User, error) {
	var user *domain.User
	err := r.s.read(func(txn *memdb.Txn) error {
		obj, err := first(txn, usersTable, index, value)
		if err != nil {
			return err
		}
		if obj == nil {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		found := *obj.(*domain.User)
		user = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type memoryVerifications struct {
	s *memoryStore
}

func (r memoryVerifications) Create(_ context.Context, v *domain.Verification) error {
	return r.s.write(func(txn *memdb.Txn) error {
		owner, err := first(txn, usersTable, "id", v.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return fmt.Errorf("create verification: unknown user %s", v.UserID)
		}
		for _, unique := range []struct{ index, value, constraint string }{
			{"id", v.ID, "verifications_pkey"},
			{"code", v.Code, "verifications_code_key"},
			{"user_id", v.UserID, "verifications_user_id_key"},
		} {
			existing, err := first(txn, verificationsTable, unique.index, unique.value)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("create verification: %w: %s", ErrDuplicate, unique.constraint)
			}
		}

		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now().UTC()
		}
		stored := *v
		return txn.Insert(verificationsTable, &stored)
	})
}

func (r memoryVerifications) GetByCode(_ context.Context, code string) (*domain.Verification, error) {
	var v *domain.Verification
	err := r.s.read(func(txn *memdb.Txn) error {
		obj, err := first(txn, verificationsTable, "code", code)
		if err != nil {
			return err
		}
		if obj == nil {
			return fmt.Errorf("get verification: %w", ErrNotFound)
		}
		found := *obj.(*domain.Verification)
		v = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r memoryVerifications) DeleteByID(_ context.Context, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		n, err := txn.DeleteAll(verificationsTable, "id", id)
		if err != nil {
			return fmt.Errorf("delete verification: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("delete verification: %w", ErrNotFound)
		}
		return nil
	})
}

func (r memoryVerifications) DeleteByUserID(_ context.Context, userID string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		if _, err := txn.DeleteAll(verificationsTable, "user_id", userID); err != nil {
			return fmt.Errorf("delete user verifications: %w", err)
		}
		return nil
	})
}
