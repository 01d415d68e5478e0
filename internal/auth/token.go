package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an access token when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// TokenType is the token_type reported to clients.
const TokenType = "bearer"

// ErrEmptySecret is returned when a codec is built without a signing secret.
var ErrEmptySecret = errors.New("token signing secret is required")

// TokenClaims is the payload carried by an access token.
// The subject holds the user ID.
type TokenClaims struct {
	Username string `json:"usr,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID returns the user ID encoded in the subject
func (c *TokenClaims) PrincipalID() (uuid.UUID, error) {
	if c == nil || c.Subject == "" {
		return uuid.Nil, ErrMalformedPayload
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, wrap(ErrMalformedPayload, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrMalformedPayload
	}
	return id, nil
}

// TokenCodec issues and validates HS256 access tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec signing with secret. A non-positive ttl
// selects DefaultTokenTTL.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenCodec{secret: key, ttl: ttl}, nil
}

// TTL returns the configured token lifetime
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for principalID valid from issuedAt for the configured TTL.
// It returns the token and its expiry.
func (c *TokenCodec) Issue(principalID uuid.UUID, username string, issuedAt time.Time) (string, time.Time, error) {
	return c.IssueWithTTL(principalID, username, issuedAt, c.ttl)
}

// IssueWithTTL is Issue with an explicit lifetime
func (c *TokenCodec) IssueWithTTL(principalID uuid.UUID, username string, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	if principalID == uuid.Nil {
		return "", time.Time{}, errors.New("issue token: principal id is required")
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}

	// JWT dates have second precision. iat is floored and exp is ceiled so the
	// token covers all of [issuedAt, issuedAt+ttl], with at most 1s of slack at the end.
	iat := issuedAt.UTC().Truncate(time.Second)
	exp := ceilSecond(issuedAt.UTC().Add(ttl))

	claims := TokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Validate checks the signature and lifetime of token at now. Every failure,
// including garbage input, is reported as ErrInvalidToken. A token is valid
// while iat <= now <= exp.
func (c *TokenCodec) Validate(token string, now time.Time) (claims *TokenClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = wrap(ErrInvalidToken, fmt.Errorf("token parse panic: %v", r))
		}
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	// Time-based claims are checked below against the caller's clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)

	parsed := &TokenClaims{}
	tok, err := parser.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, wrap(ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	if parsed.ExpiresAt == nil {
		return nil, wrap(ErrInvalidToken, jwt.ErrTokenRequiredClaimMissing)
	}
	if now.After(parsed.ExpiresAt.Time) {
		return nil, wrap(ErrInvalidToken, jwt.ErrTokenExpired)
	}
	if parsed.IssuedAt != nil && now.Before(parsed.IssuedAt.Time) {
		return nil, wrap(ErrInvalidToken, jwt.ErrTokenUsedBeforeIssued)
	}

	return parsed, nil
}

func ceilSecond(t time.Time) time.Time {
	floor := t.Truncate(time.Second)
	if floor.Before(t) {
		return floor.Add(time.Second)
	}
	return floor
}
