// Package storage declares the persistence interfaces consumed by the
// service layer. Implementations live in the postgres and memory
// subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/goback-io/goback/internal/domain/user"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicateEmail is returned when an insert would violate the unique
// email constraint.
var ErrDuplicateEmail = errors.New("storage: email already registered")

// UserStore persists user entities.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	Get(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	ListActive(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}
