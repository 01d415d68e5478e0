package middleware

import (
	"context"
	"sync"

	"github.com/upb/blog-api/internal/auth"
	"github.com/upb/blog-api/models"
)

// State is the authentication state of a request.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// PrincipalResolver resolves a bearer token to an active user.
type PrincipalResolver interface {
	ResolveFromToken(ctx context.Context, token string) (*models.User, error)
}

// Session is the per-request authentication context. The token is resolved
// at most once; every caller within the request sees the same outcome.
type Session struct {
	token    string
	resolver PrincipalResolver

	once      sync.Once
	principal *models.User
	err       error
}

// NewSession creates an unresolved session for token. An empty token
// resolves to auth.ErrMissingToken.
func NewSession(token string, resolver PrincipalResolver) *Session {
	return &Session{token: token, resolver: resolver}
}

// HasToken reports whether the request carried a bearer token.
func (s *Session) HasToken() bool {
	return s.token != ""
}

// Principal resolves the session, caching the result for the request.
func (s *Session) Principal(ctx context.Context) (*models.User, error) {
	s.once.Do(func() {
		if s.token == "" {
			s.err = auth.ErrMissingToken
			return
		}
		s.principal, s.err = s.resolver.ResolveFromToken(ctx, s.token)
		if s.err != nil {
			s.principal = nil
		}
	})
	return s.principal, s.err
}

// State resolves the session if needed and reports whether it is authenticated.
func (s *Session) State(ctx context.Context) State {
	if _, err := s.Principal(ctx); err != nil {
		return Unauthenticated
	}
	return Authenticated
}

// PrincipalFromContext returns the authenticated user of the request, if any.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	s := GetSessionFromContext(ctx)
	if s == nil {
		return nil, false
	}
	user, err := s.Principal(ctx)
	return user, err == nil
}
