package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
	"go.uber.org/zap"
)

const postColumns = `id, title, content, author_id, views, likes, is_published, is_deleted, created_at, updated_at, published_at`

// PostRepository implements the repositories.PostRepository interface
type PostRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB, logger *zap.Logger) repositories.PostRepository {
	return &PostRepository{
		db:     db,
		logger: logger,
	}
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&post.Views,
		&post.Likes,
		&post.IsPublished,
		&post.IsDeleted,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// filterClause renders the live-post predicate plus filter conditions.
// Placeholders start at $1.
func filterClause(filter repositories.PostFilter) (string, []interface{}) {
	conds := []string{"is_deleted = FALSE"}
	var args []interface{}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		conds = append(conds, "author_id = $"+strconv.Itoa(len(args)))
	}
	if filter.IsPublished != nil {
		args = append(args, *filter.IsPublished)
		conds = append(conds, "is_published = $"+strconv.Itoa(len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	executor := boundExecutor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.Views,
		post.Likes,
		post.IsPublished,
		post.IsDeleted,
		post.CreatedAt,
		post.UpdatedAt,
		post.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	r.logger.Debug("post created", zap.String("id", post.ID.String()), zap.String("author_id", post.AuthorID.String()))
	return nil
}

// GetByID retrieves a live post by ID
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND is_deleted = FALSE`

	executor := boundExecutor(ctx, r.db, r.tx)
	post, err := scanPost(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if tErr := translateError(err); errors.Is(tErr, repositories.ErrNotFound) {
			return nil, tErr
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List retrieves live posts matching filter, newest first
func (r *PostRepository) List(ctx context.Context, filter repositories.PostFilter, limit, offset int) ([]*models.Post, error) {
	where, args := filterClause(filter)
	n := len(args)
	query := `SELECT ` + postColumns + ` FROM posts` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	executor := boundExecutor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

// Update persists title, content and publication state of a live post
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2,
		    content = $3,
		    is_published = $4,
		    published_at = $5,
		    updated_at = $6
		WHERE id = $1 AND is_deleted = FALSE
	`

	executor := boundExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.IsPublished,
		post.PublishedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	if err := expectOneRow(result.RowsAffected()); err != nil {
		return err
	}

	r.logger.Debug("post updated", zap.String("id", post.ID.String()))
	return nil
}

// IncrementViews atomically adds one view and returns the new count
func (r *PostRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	query := `UPDATE posts SET views = views + 1 WHERE id = $1 AND is_deleted = FALSE RETURNING views`

	var views int
	executor := boundExecutor(ctx, r.db, r.tx)
	if err := executor.QueryRowContext(ctx, query, id).Scan(&views); err != nil {
		if tErr := translateError(err); errors.Is(tErr, repositories.ErrNotFound) {
			return 0, tErr
		}
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

// SoftDelete flags a live post as deleted
func (r *PostRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE posts SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`

	executor := boundExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete post: %w", err)
	}

	if err := expectOneRow(result.RowsAffected()); err != nil {
		return err
	}

	r.logger.Debug("post soft deleted", zap.String("id", id.String()))
	return nil
}

// Delete removes a post row regardless of its deleted flag
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1`

	executor := boundExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if err := expectOneRow(result.RowsAffected()); err != nil {
		return err
	}

	r.logger.Debug("post deleted", zap.String("id", id.String()))
	return nil
}

// Count returns the number of live posts matching filter
func (r *PostRepository) Count(ctx context.Context, filter repositories.PostFilter) (int, error) {
	where, args := filterClause(filter)
	query := `SELECT COUNT(*) FROM posts` + where

	var n int
	executor := boundExecutor(ctx, r.db, r.tx)
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *PostRepository) WithTx(tx repositories.Transaction) repositories.PostRepository {
	return &PostRepository{
		db:     r.db,
		tx:     asTransaction(tx),
		logger: r.logger,
	}
}

func expectOneRow(rowsAffected int64, err error) error {
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
