// Package memory provides an in-memory storage implementation used by tests
// and local development without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goback-io/goback/internal/domain/user"
	"github.com/goback-io/goback/internal/storage"
)

// Store implements storage.UserStore with process-local state.
type Store struct {
	mu      sync.RWMutex
	users   map[string]user.User
	byEmail map[string]string
}

var _ storage.UserStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) Create(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return user.User{}, storage.ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

func (s *Store) Get(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) ListActive(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []user.User
	for _, u := range s.users {
		if u.IsActive {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) Update(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	if u.Email != existing.Email {
		if id, taken := s.byEmail[u.Email]; taken && id != u.ID {
			return user.User{}, storage.ErrDuplicateEmail
		}
		delete(s.byEmail, existing.Email)
		s.byEmail[u.Email] = u.ID
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}
