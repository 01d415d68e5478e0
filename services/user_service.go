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

// UpdateProfileInput holds optional profile changes. Nil fields are left alone.
type UpdateProfileInput struct {
	FullName *string
	Email    *string
}

// UserService serves user listing and self-service profile updates
type UserService struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(users repositories.UserRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		txMgr:  txMgr,
		logger: logger,
	}
}

// List returns one page of users
func (s *UserService) List(ctx context.Context, page models.Page) (models.PageResult[*models.User], error) {
	users, err := s.users.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return models.PageResult[*models.User]{}, WrapInternal("failed to list users", err)
	}
	return models.NewPageResult(users, page), nil
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to get user", err)
	}
	return user, nil
}

// UpdateProfile applies in to the principal's own account
func (s *UserService) UpdateProfile(ctx context.Context, principal *models.User, in UpdateProfileInput) (*models.User, error) {
	if principal == nil {
		return nil, ErrUnauthorized
	}

	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		users := s.users.WithTx(tx)

		user, err := users.GetByID(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, WrapInternal("failed to get user", err)
		}

		if in.FullName != nil {
			user.FullName = *in.FullName
		}

		if in.Email != nil && *in.Email != user.Email {
			other, err := users.GetByEmail(ctx, *in.Email)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, ErrEmailInUse
			case err != nil && !errors.Is(err, repositories.ErrNotFound):
				return nil, WrapInternal("failed to look up email", err)
			}
			user.Email = *in.Email
		}

		user.Touch(time.Now())
		if err := users.Update(ctx, user); err != nil {
			return nil, duplicateToDomain(err, ErrEmailInUse, "failed to update user")
		}

		s.logger.Info("profile updated", zap.String("user_id", user.ID.String()))
		return user, nil
	})
}
