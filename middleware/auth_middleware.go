package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/upb/blog-api/internal/auth"
	"github.com/upb/blog-api/internal/policy"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

// FailureRecorder counts authentication failures by reason.
type FailureRecorder interface {
	AuthFailure(reason string)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	resolver PrincipalResolver
	logger   *zap.Logger
	failures FailureRecorder
}

// NewAuthMiddleware creates a new AuthMiddleware. failures may be nil.
func NewAuthMiddleware(resolver PrincipalResolver, logger *zap.Logger, failures FailureRecorder) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		logger:   logger,
		failures: failures,
	}
}

// Authenticate attaches a lazily resolved Session to every request. It never
// rejects; use RequireAuth for that.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := NewSession(extractBearerToken(r), m.resolver)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireAuth rejects requests whose session does not resolve to an active user
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session := GetSessionFromContext(ctx)
		if session == nil {
			session = NewSession(extractBearerToken(r), m.resolver)
			ctx = WithSession(ctx, session)
		}

		user, err := session.Principal(ctx)
		if err != nil {
			m.recordFailure(err)
			WriteAuthError(w, r, err, m.logger)
			return
		}

		ctx = WithUserID(ctx, user.ID)
		m.logger.Debug("authentication successful",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.String("user_id", user.ID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated non-admins. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		user, ok := PrincipalFromContext(ctx)
		if !ok {
			m.logger.Error("admin check without authenticated session",
				zap.String("request_id", requestID))
			_ = utils.WriteAuthChallenge(w, auth.ErrMissingToken.Message)
			return
		}

		if d := policy.RequireAdmin(user); !d.IsAllowed() {
			m.logger.Warn("admin privileges required",
				zap.String("request_id", requestID),
				zap.String("user_id", user.ID.String()))
			_ = utils.WriteForbidden(w, "Admin privileges required", map[string]interface{}{"reason": string(d.Code)})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) recordFailure(err error) {
	if m.failures == nil {
		return
	}
	if kind, ok := auth.KindOf(err); ok {
		m.failures.AuthFailure(string(kind))
		return
	}
	m.failures.AuthFailure("internal")
}

// WriteAuthError maps an authentication failure to its HTTP response.
// Token problems get 401 with a Bearer challenge, bad logins 401, disabled
// accounts 403, anything else 500.
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	requestID := GetRequestIDFromContext(r.Context())

	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		logger.Error("authentication backend failure",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	logger.Warn("authentication failed",
		zap.String("request_id", requestID),
		zap.String("reason", string(authErr.Kind)),
		zap.Error(err))

	switch {
	case auth.RequiresReauthentication(err):
		_ = utils.WriteAuthChallenge(w, authErr.Message)
	case authErr.Kind == auth.KindPrincipalDisabled:
		_ = utils.WriteForbidden(w, authErr.Message, nil)
	default:
		_ = utils.WriteUnauthorized(w, authErr.Message)
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
