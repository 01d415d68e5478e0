package services

import (
	"context"
	"errors"
	"time"

	"github.com/upb/blog-api/internal/auth"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries a validated registration request
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// TokenResult is an issued access token
type TokenResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService registers accounts and exchanges credentials for tokens
type AuthService struct {
	users    repositories.UserRepository
	txMgr    repositories.TransactionManager
	resolver *auth.Resolver
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService instance
func NewAuthService(users repositories.UserRepository, txMgr repositories.TransactionManager, resolver *auth.Resolver, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		txMgr:    txMgr,
		resolver: resolver,
		logger:   logger,
	}
}

// Register creates an active, non-admin account. Username is checked before
// email so a request clashing on both reports the username.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	digest, err := s.resolver.Hasher().Hash(in.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmptyPassword):
			return nil, NewValidationError("Validation failed", map[string]string{"password": "password is required"})
		case errors.Is(err, bcrypt.ErrPasswordTooLong):
			return nil, NewValidationError("Validation failed", map[string]string{"password": "password must be at most 72 bytes"})
		}
		return nil, WrapInternal("failed to hash password", err)
	}

	user, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		users := s.users.WithTx(tx)

		if err := ensureAbsent(users.GetByUsername(ctx, in.Username)); err != nil {
			return nil, orDomain(err, ErrDuplicateUsername)
		}
		if err := ensureAbsent(users.GetByEmail(ctx, in.Email)); err != nil {
			return nil, orDomain(err, ErrDuplicateEmail)
		}

		user := models.NewUser(in.Username, in.Email, digest, in.FullName)
		if err := users.Create(ctx, user); err != nil {
			return nil, duplicateToDomain(err, ErrDuplicateEmail, "failed to create user")
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and issues a bearer token. Authentication
// failures are returned as auth errors for the boundary to map.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenResult, error) {
	user, err := s.resolver.ResolveFromCredential(ctx, username, password)
	if err != nil {
		if _, ok := auth.KindOf(err); ok {
			s.logger.Info("login rejected", zap.String("username", username), zap.Error(err))
			return nil, err
		}
		return nil, WrapInternal("failed to authenticate", err)
	}

	token, expiresAt, err := s.resolver.IssueToken(user)
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &TokenResult{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresIn:   int64(s.resolver.Tokens().TTL() / time.Second),
		ExpiresAt:   expiresAt,
	}, nil
}

var errPresent = errors.New("record present")

// ensureAbsent turns a lookup into nil when nothing was found, errPresent when
// a record exists, and the lookup error otherwise.
func ensureAbsent(_ *models.User, err error) error {
	switch {
	case err == nil:
		return errPresent
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return err
	}
}

// orDomain maps errPresent to conflict and anything else to internal
func orDomain(err error, conflict *DomainError) error {
	if errors.Is(err, errPresent) {
		return conflict
	}
	return WrapInternal("failed to look up user", err)
}

// duplicateToDomain maps a uniqueness violation from the store to the
// matching conflict error
func duplicateToDomain(err error, emailConflict *DomainError, msg string) error {
	var dup *repositories.DuplicateError
	if errors.As(err, &dup) {
		if dup.Field == "username" {
			return ErrDuplicateUsername
		}
		return emailConflict
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return WrapInternal(msg, err)
}
