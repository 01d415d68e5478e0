package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
)

// UserRepository is a map-backed repositories.UserRepository.
type UserRepository struct {
	store *Store
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

// Create inserts a copy of user, enforcing unique username and email.
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(user); err != nil {
		return err
	}
	s.users[user.ID.String()] = copyUser(user)
	return nil
}

func (s *Store) checkUniqueLocked(user *models.User) error {
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return &repositories.DuplicateError{Field: "username"}
		}
		if u.Email == user.Email {
			return &repositories.DuplicateError{Field: "email"}
		}
	}
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id.String()]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

// List returns users oldest first, matching the postgres ordering.
func (r *UserRepository) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	s := r.store
	s.mu.RLock()
	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, copyUser(u))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return window(all, limit, offset), nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID.String()]
	if !ok {
		return repositories.ErrNotFound
	}
	if err := s.checkUniqueLocked(user); err != nil {
		return err
	}
	updated := copyUser(user)
	updated.Username = existing.Username
	updated.PasswordHash = existing.PasswordHash
	updated.CreatedAt = existing.CreatedAt
	s.users[user.ID.String()] = updated
	return nil
}

func (r *UserRepository) Count(_ context.Context, activeOnly bool) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !activeOnly {
		return len(s.users), nil
	}
	n := 0
	for _, u := range s.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) WithTx(repositories.Transaction) repositories.UserRepository {
	return r
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
