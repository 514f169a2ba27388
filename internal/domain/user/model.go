// Package user defines the user entity and its request/response shapes.
package user

import "time"

// User represents an account holder. HashedPassword never leaves the
// storage and service layers.
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	IsAdmin        bool      `json:"is_admin" db:"is_admin"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRequest carries the fields needed to register a user.
type CreateRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateRequest carries the mutable profile fields. Nil means unchanged.
type UpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}
