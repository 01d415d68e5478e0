// Package memory provides in-process repositories for tests and local runs.
// Transactions are accepted for interface compatibility but do not isolate
// or roll back writes.
package memory

import (
	"context"
	"sync"

	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
)

// Store holds the shared tables behind the memory repositories.
type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
	posts map[string]*models.Post
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

// Repositories returns repositories over the store.
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users: &UserRepository{store: s},
		Posts: &PostRepository{store: s},
	}
}

// TransactionManager returns a transaction manager whose transactions are
// no-ops.
func (s *Store) TransactionManager() repositories.TransactionManager {
	return txManager{}
}

type txManager struct{}

func (txManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &transaction{ctx: ctx}, nil
}

func (m txManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, _ := m.Begin(ctx)
	if err := fn(tx.Context(), tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type transaction struct {
	ctx context.Context
}

func (t *transaction) Commit() error            { return nil }
func (t *transaction) Rollback() error          { return nil }
func (t *transaction) Context() context.Context { return t.ctx }
