package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/blog-api/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError names the unique field a write clashed on. It matches
// ErrDuplicate under errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrDuplicate.Error()
	}
	return ErrDuplicate.Error() + ": " + e.Field
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context that routes repository calls through the transaction
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a user. Returns ErrDuplicate on a username or email clash.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Update updates mutable profile fields and flags
	Update(ctx context.Context, user *models.User) error

	// Count returns the number of users, optionally only active ones
	Count(ctx context.Context, activeOnly bool) (int, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) UserRepository
}

// PostFilter narrows post listings. Nil fields do not filter.
type PostFilter struct {
	AuthorID    *uuid.UUID
	IsPublished *bool
}

// PostRepository handles post data operations.
// Read methods never return soft-deleted posts.
type PostRepository interface {
	// Create inserts a post
	Create(ctx context.Context, post *models.Post) error

	// GetByID retrieves a live post by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// List retrieves live posts matching filter, newest first
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)

	// Update persists title, content and publication state
	Update(ctx context.Context, post *models.Post) error

	// IncrementViews atomically adds one view and returns the new count
	IncrementViews(ctx context.Context, id uuid.UUID) (int, error)

	// SoftDelete flags a live post as deleted
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Delete removes a post row regardless of its deleted flag
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the number of live posts matching filter
	Count(ctx context.Context, filter PostFilter) (int, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) PostRepository
}

// Repositories aggregates all repositories
type Repositories struct {
	Users UserRepository
	Posts PostRepository
}
