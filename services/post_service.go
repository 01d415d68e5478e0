package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/blog-api/internal/policy"
	"github.com/upb/blog-api/internal/tasks"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
	"go.uber.org/zap"
)

const (
	msgUpdateOwnPosts  = "You can only update your own posts"
	msgDeleteOwnPosts  = "You can only delete your own posts"
	msgPublishOwnPosts = "You can only publish your own posts"
)

// TaskQueue accepts background work without blocking
type TaskQueue interface {
	Enqueue(task tasks.Task) bool
}

// CreatePostInput carries a validated new post
type CreatePostInput struct {
	Title   string
	Content string
}

// UpdatePostInput holds optional post changes. Nil fields are left alone.
type UpdatePostInput struct {
	Title   *string
	Content *string
}

// PostService handles post CRUD with ownership checks
type PostService struct {
	posts  repositories.PostRepository
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	queue  TaskQueue
	logger *zap.Logger
	now    func() time.Time
}

// NewPostService creates a new PostService instance. queue may be nil.
func NewPostService(repos *repositories.Repositories, txMgr repositories.TransactionManager, queue TaskQueue, logger *zap.Logger) *PostService {
	return &PostService{
		posts:  repos.Posts,
		users:  repos.Users,
		txMgr:  txMgr,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

// List returns one page of live posts matching filter
func (s *PostService) List(ctx context.Context, filter repositories.PostFilter, page models.Page) (models.PageResult[*models.Post], error) {
	posts, err := s.posts.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return models.PageResult[*models.Post]{}, WrapInternal("failed to list posts", err)
	}
	return models.NewPageResult(posts, page), nil
}

// Get returns a live post with its author's username and counts the view
func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*models.PostDetail, error) {
	if _, err := s.posts.IncrementViews(ctx, id); err != nil {
		return nil, postLookupError(err)
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, postLookupError(err)
	}

	detail := &models.PostDetail{Post: post}
	author, err := s.users.GetByID(ctx, post.AuthorID)
	switch {
	case err == nil:
		detail.AuthorUsername = author.Username
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, WrapInternal("failed to load post author", err)
	}
	return detail, nil
}

// Create stores a new unpublished post owned by principal and schedules
// indexing and follower notification
func (s *PostService) Create(ctx context.Context, principal *models.User, in CreatePostInput) (*models.Post, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}

	post := models.NewPost(in.Title, in.Content, principal.ID)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, WrapInternal("failed to create post", err)
	}

	s.logger.Info("post created",
		zap.String("post_id", post.ID.String()),
		zap.String("author_id", principal.ID.String()))
	s.schedule(post)
	return post, nil
}

// Update changes title and content of a post owned by principal
func (s *PostService) Update(ctx context.Context, principal *models.User, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	return s.mutateOwned(ctx, principal, id, msgUpdateOwnPosts, func(ctx context.Context, posts repositories.PostRepository, post *models.Post) error {
		if in.Title != nil {
			post.Title = *in.Title
		}
		if in.Content != nil {
			post.Content = *in.Content
		}
		post.UpdatedAt = s.now().UTC()
		return posts.Update(ctx, post)
	})
}

// Delete soft-deletes a post owned by principal
func (s *PostService) Delete(ctx context.Context, principal *models.User, id uuid.UUID) error {
	_, err := s.mutateOwned(ctx, principal, id, msgDeleteOwnPosts, func(ctx context.Context, posts repositories.PostRepository, post *models.Post) error {
		return posts.SoftDelete(ctx, post.ID)
	})
	if err == nil {
		s.logger.Info("post deleted", zap.String("post_id", id.String()))
	}
	return err
}

// Publish marks a post owned by principal as published now
func (s *PostService) Publish(ctx context.Context, principal *models.User, id uuid.UUID) (*models.Post, error) {
	return s.mutateOwned(ctx, principal, id, msgPublishOwnPosts, func(ctx context.Context, posts repositories.PostRepository, post *models.Post) error {
		post.Publish(s.now())
		return posts.Update(ctx, post)
	})
}

// mutateOwned loads a live post, requires principal to own it, then applies fn,
// all in one transaction
func (s *PostService) mutateOwned(ctx context.Context, principal *models.User, id uuid.UUID, denyMsg string,
	fn func(ctx context.Context, posts repositories.PostRepository, post *models.Post) error) (*models.Post, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}

	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Post, error) {
		posts := s.posts.WithTx(tx)

		post, err := posts.GetByID(ctx, id)
		if err != nil {
			return nil, postLookupError(err)
		}

		if d := policy.RequireOwner(principal, post); !d.IsAllowed() {
			s.logger.Warn("post ownership denied",
				zap.String("post_id", id.String()),
				zap.String("user_id", principal.ID.String()))
			return nil, d.WithReason(denyMsg).Err()
		}

		if err := fn(ctx, posts, post); err != nil {
			return nil, postLookupError(err)
		}
		return post, nil
	})
}

func (s *PostService) schedule(post *models.Post) {
	if s.queue == nil {
		return
	}
	for _, name := range []string{tasks.SearchIndex, tasks.NotifyFollowers} {
		s.queue.Enqueue(tasks.Task{Name: name, PostID: post.ID, AuthorID: post.AuthorID})
	}
}

func postLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrPostNotFound
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return WrapInternal("failed to access post", err)
}
