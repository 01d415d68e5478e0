package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
	"go.uber.org/zap"
)

// AdminService backs the admin endpoints. Callers must already have passed
// the admin policy check.
type AdminService struct {
	users  repositories.UserRepository
	posts  repositories.PostRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewAdminService creates a new AdminService instance
func NewAdminService(repos *repositories.Repositories, txMgr repositories.TransactionManager, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:  repos.Users,
		posts:  repos.Posts,
		txMgr:  txMgr,
		logger: logger,
	}
}

// Dashboard returns user and post counters. Soft-deleted posts are not counted.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	if stats.TotalUsers, err = s.users.Count(ctx, false); err != nil {
		return nil, WrapInternal("failed to count users", err)
	}
	if stats.ActiveUsers, err = s.users.Count(ctx, true); err != nil {
		return nil, WrapInternal("failed to count active users", err)
	}
	if stats.TotalPosts, err = s.posts.Count(ctx, repositories.PostFilter{}); err != nil {
		return nil, WrapInternal("failed to count posts", err)
	}
	published := true
	if stats.PublishedPosts, err = s.posts.Count(ctx, repositories.PostFilter{IsPublished: &published}); err != nil {
		return nil, WrapInternal("failed to count published posts", err)
	}
	return &stats, nil
}

// ListUsers returns one page of all users, active or not
func (s *AdminService) ListUsers(ctx context.Context, page models.Page) (models.PageResult[*models.User], error) {
	users, err := s.users.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return models.PageResult[*models.User]{}, WrapInternal("failed to list users", err)
	}
	return models.NewPageResult(users, page), nil
}

// ToggleActive flips a user's active flag. An admin cannot deactivate their
// own account. Deactivation takes effect on the user's next request.
func (s *AdminService) ToggleActive(ctx context.Context, actor *models.User, userID uuid.UUID) (*models.User, error) {
	if actor != nil && actor.ID == userID {
		return nil, ErrCannotDisableSelf
	}

	user, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		users := s.users.WithTx(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, WrapInternal("failed to get user", err)
		}

		user.IsActive = !user.IsActive
		user.Touch(time.Now())
		if err := users.Update(ctx, user); err != nil {
			return nil, duplicateToDomain(err, ErrEmailInUse, "failed to update user")
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("user_id", user.ID.String()), zap.Bool("is_active", user.IsActive)}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID.String()))
	}
	s.logger.Info("user active flag toggled", fields...)
	return user, nil
}

// DeletePost removes a post permanently, including soft-deleted ones
func (s *AdminService) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPostNotFound
		}
		return WrapInternal("failed to delete post", err)
	}
	s.logger.Info("post hard deleted", zap.String("post_id", id.String()))
	return nil
}
