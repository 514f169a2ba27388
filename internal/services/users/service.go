// Package users implements the user management service.
package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/goback-io/goback/internal/domain/user"
	svcerrors "github.com/goback-io/goback/internal/errors"
	"github.com/goback-io/goback/internal/storage"
)

// Service handles business logic for user management.
type Service struct {
	store storage.UserStore
}

// NewService creates a user service over the given store.
func NewService(store storage.UserStore) *Service {
	return &Service{store: store}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	if err := validateCreate(req); err != nil {
		return user.User{}, err
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return user.User{}, svcerrors.Internal("failed to hash password", err)
	}

	created, err := s.store.Create(ctx, user.User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		HashedPassword: hashed,
		IsActive:       true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return user.User{}, svcerrors.Conflict("User with this email already exists")
		}
		return user.User{}, err
	}
	return created, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, svcerrors.NotFound("")
		}
		return user.User{}, err
	}
	return u, nil
}

// GetByEmail returns a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, svcerrors.NotFound("")
		}
		return user.User{}, err
	}
	return u, nil
}

// ListActive returns all active users.
func (s *Service) ListActive(ctx context.Context) ([]user.User, error) {
	return s.store.ListActive(ctx)
}

// Update changes the mutable profile fields of a user.
func (s *Service) Update(ctx context.Context, id string, req user.UpdateRequest) (user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if req.FirstName != nil {
		if err := validateName(*req.FirstName, "first_name"); err != nil {
			return user.User{}, err
		}
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if err := validateName(*req.LastName, "last_name"); err != nil {
			return user.User{}, err
		}
		u.LastName = strings.TrimSpace(*req.LastName)
	}

	return s.store.Update(ctx, u)
}

// UpdatePassword replaces a user's password.
func (s *Service) UpdatePassword(ctx context.Context, id, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return svcerrors.Internal("failed to hash password", err)
	}
	u.HashedPassword = hashed
	_, err = s.store.Update(ctx, u)
	return err
}

// Delete deactivates a user. The row is retained; the account can be
// reactivated later.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	_, err = s.store.Update(ctx, u)
	return err
}

// Reactivate re-enables a deactivated user.
func (s *Service) Reactivate(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = true
	_, err = s.store.Update(ctx, u)
	return err
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plain password matches the hash.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

func validateCreate(req user.CreateRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" || len(email) > 255 {
		return svcerrors.Validation("email must be between 1 and 255 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return svcerrors.Validation("invalid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if err := validateName(req.FirstName, "first_name"); err != nil {
		return err
	}
	return validateName(req.LastName, "last_name")
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return svcerrors.Validation("password cannot be empty or whitespace")
	}
	if len(password) < 8 || len(password) > 30 {
		return svcerrors.Validation("password must be between 8 and 30 characters")
	}
	return nil
}

func validateName(name, field string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return svcerrors.Validation(field + " cannot be empty or contain only whitespace")
	}
	if len(trimmed) < 2 || len(trimmed) > 100 {
		return svcerrors.Validation(field + " must be between 2 and 100 characters")
	}
	return nil
}
