package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
)

// PrincipalStore looks up users. Absence is reported as repositories.ErrNotFound.
type PrincipalStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithClock overrides the time source used for token validation and issuance
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// Resolver turns a bearer token or a username/password pair into an active user.
// It keeps no per-request state; every call consults the store.
type Resolver struct {
	tokens *TokenCodec
	hasher Hasher
	store  PrincipalStore
	now    func() time.Time

	// dummyDigest is verified against for unknown usernames so they cost
	// the same single Verify as a wrong password.
	dummyDigest string
}

// NewResolver creates a resolver
func NewResolver(tokens *TokenCodec, hasher Hasher, store PrincipalStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		tokens: tokens,
		hasher: hasher,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if hasher != nil {
		if digest, err := hasher.Hash("timing-equalizer-password"); err == nil {
			r.dummyDigest = digest
		}
	}
	return r
}

// Tokens returns the codec used by the resolver
func (r *Resolver) Tokens() *TokenCodec {
	return r.tokens
}

// Hasher returns the password hasher used by the resolver
func (r *Resolver) Hasher() Hasher {
	return r.hasher
}

// Now returns the resolver's current time
func (r *Resolver) Now() time.Time {
	return r.now()
}

// ResolveFromToken validates token and loads its user. Failures are checked in
// order: ErrInvalidToken, ErrMalformedPayload, ErrPrincipalNotFound,
// ErrPrincipalDisabled. Store failures are returned as plain (internal) errors.
func (r *Resolver) ResolveFromToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := r.tokens.Validate(token, r.now())
	if err != nil {
		return nil, err
	}

	id, err := claims.PrincipalID()
	if err != nil {
		return nil, err
	}

	user, err := r.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("load principal %s: %w", id, err)
	}
	if user == nil {
		return nil, ErrPrincipalNotFound
	}

	if !user.IsActive {
		return nil, ErrPrincipalDisabled
	}

	return user, nil
}

// ResolveFromCredential authenticates a username/password pair. An unknown
// username and a wrong password both yield ErrInvalidCredential. The active flag
// is only consulted once the password has been verified.
func (r *Resolver) ResolveFromCredential(ctx context.Context, username, password string) (*models.User, error) {
	user, err := r.store.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("load principal by username: %w", err)
	}

	if user == nil {
		// Burn a comparison so unknown usernames cost the same as wrong passwords.
		r.equalizeTiming(password)
		return nil, ErrInvalidCredential
	}

	ok, err := r.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify credential for %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredential
	}

	if !user.IsActive {
		return nil, ErrPrincipalDisabled
	}

	return user, nil
}

// IssueToken signs an access token for user at the resolver's current time
func (r *Resolver) IssueToken(user *models.User) (string, time.Time, error) {
	return r.tokens.Issue(user.ID, user.Username, r.now())
}

func (r *Resolver) equalizeTiming(password string) {
	if r.dummyDigest == "" || password == "" {
		return
	}
	_, _ = r.hasher.Verify(password, r.dummyDigest)
}
