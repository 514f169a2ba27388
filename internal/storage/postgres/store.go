// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/goback-io/goback/internal/domain/user"
	"github.com/goback-io/goback/internal/storage"
)

// Store implements storage.UserStore backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func (s *Store) Create(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, hashed_password, is_admin, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Email, u.FirstName, u.LastName, u.HashedPassword, u.IsAdmin, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return user.User{}, storage.ErrDuplicateEmail
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) Get(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, email, first_name, last_name, hashed_password, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, email, first_name, last_name, hashed_password, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) ListActive(ctx context.Context) ([]user.User, error) {
	var result []user.User
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, email, first_name, last_name, hashed_password, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE is_active
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) Update(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, hashed_password = $4, is_admin = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.HashedPassword, u.IsAdmin, u.IsActive, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}
