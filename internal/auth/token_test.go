package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-that-is-long-enough")

func newTestCodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, ttl)
	require.NoError(t, err)
	return codec
}

func TestNewTokenCodec(t *testing.T) {
	t.Run("empty secret is rejected", func(t *testing.T) {
		codec, err := NewTokenCodec(nil, time.Hour)
		assert.ErrorIs(t, err, ErrEmptySecret)
		assert.Nil(t, codec)
	})

	t.Run("non-positive ttl selects default", func(t *testing.T) {
		codec := newTestCodec(t, 0)
		assert.Equal(t, DefaultTokenTTL, codec.TTL())
	})

	t.Run("secret is copied", func(t *testing.T) {
		secret := []byte("mutable-secret")
		codec, err := NewTokenCodec(secret, time.Hour)
		require.NoError(t, err)

		token, _, err := codec.Issue(uuid.New(), "alice", time.Now())
		require.NoError(t, err)

		secret[0] = 'X'
		_, err = codec.Validate(token, time.Now())
		assert.NoError(t, err)
	})
}

func TestTokenCodec_ValidityWindow(t *testing.T) {
	ttl := 24 * time.Hour
	codec := newTestCodec(t, ttl)
	issuedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	principalID := uuid.New()

	token, expiresAt, err := codec.Issue(principalID, "alice", issuedAt)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(ttl), expiresAt)

	valid := []time.Duration{0, time.Second, time.Hour, ttl - time.Second, ttl}
	for _, offset := range valid {
		claims, err := codec.Validate(token, issuedAt.Add(offset))
		require.NoError(t, err, "offset %s", offset)

		id, err := claims.PrincipalID()
		require.NoError(t, err)
		assert.Equal(t, principalID, id)
		assert.Equal(t, "alice", claims.Username)
	}

	expired := []time.Duration{ttl + time.Nanosecond, ttl + time.Second, 48 * time.Hour}
	for _, offset := range expired {
		claims, err := codec.Validate(token, issuedAt.Add(offset))
		assert.ErrorIs(t, err, ErrInvalidToken, "offset %s", offset)
		assert.Nil(t, claims)
	}
}

func TestTokenCodec_RejectsUseBeforeIssue(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	issuedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	token, _, err := codec.Issue(uuid.New(), "alice", issuedAt)
	require.NoError(t, err)

	_, err = codec.Validate(token, issuedAt.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_TamperedSignature(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Now()

	token, _, err := codec.Issue(uuid.New(), "alice", now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	signature := parts[2]

	for i := 0; i < len(signature); i++ {
		replacement := byte('A')
		if signature[i] == 'A' {
			replacement = 'B'
		}
		mutated := signature[:i] + string(replacement) + signature[i+1:]
		tampered := parts[0] + "." + parts[1] + "." + mutated

		_, err := codec.Validate(tampered, now)
		assert.ErrorIs(t, err, ErrInvalidToken, "position %d", i)
	}
}

func TestTokenCodec_TamperedSignaturePaddingBits(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	codec := newTestCodec(t, time.Hour)
	now := time.Now()

	for n := 0; n < 20; n++ {
		token, _, err := codec.Issue(uuid.New(), "alice", now)
		require.NoError(t, err)

		// Flipping the low bit of the last character only touches the
		// trailing bits that do not encode signature bytes.
		last := strings.IndexByte(alphabet, token[len(token)-1])
		require.GreaterOrEqual(t, last, 0)
		tampered := token[:len(token)-1] + string(alphabet[last^1])

		_, err = codec.Validate(tampered, now)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %d", n)
	}
}

func TestTokenCodec_SubSecondIssueTime(t *testing.T) {
	ttl := time.Hour
	codec := newTestCodec(t, ttl)
	issuedAt := time.Date(2024, 1, 15, 0, 0, 0, 900*int(time.Millisecond), time.UTC)

	token, expiresAt, err := codec.Issue(uuid.New(), "alice", issuedAt)
	require.NoError(t, err)
	assert.False(t, expiresAt.Before(issuedAt.Add(ttl)))
	assert.Equal(t, issuedAt.Add(ttl).Truncate(time.Second).Add(time.Second), expiresAt)

	valid := []time.Duration{0, 50 * time.Millisecond, ttl - 200*time.Millisecond, ttl}
	for _, offset := range valid {
		_, err := codec.Validate(token, issuedAt.Add(offset))
		assert.NoError(t, err, "offset %s", offset)
	}

	expired := []time.Duration{ttl + 150*time.Millisecond, ttl + time.Second}
	for _, offset := range expired {
		_, err := codec.Validate(token, issuedAt.Add(offset))
		assert.ErrorIs(t, err, ErrInvalidToken, "offset %s", offset)
	}

	_, err = codec.Validate(token, issuedAt.Add(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_TamperedPayload(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Now()

	token, _, err := codec.Issue(uuid.New(), "alice", now)
	require.NoError(t, err)

	other, _, err := codec.Issue(uuid.New(), "mallory", now)
	require.NoError(t, err)

	// Splice another token's payload onto the original signature.
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	spliced := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = codec.Validate(spliced, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	other, err := NewTokenCodec([]byte("a-completely-different-secret"), time.Hour)
	require.NoError(t, err)

	token, _, err := other.Issue(uuid.New(), "alice", time.Now())
	require.NoError(t, err)

	_, err = codec.Validate(token, time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	t.Run("none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Validate(token, now)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("HS512", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = codec.Validate(token, now)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenCodec_MissingExpiry(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = codec.Validate(token, time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_MalformedInputNeverPanics(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	inputs := []string{
		"",
		"   ",
		"not-a-token",
		"a.b",
		"a.b.c",
		"a.b.c.d",
		"....",
		"eyJhbGciOiJIUzI1NiJ9.%%%.sig",
		strings.Repeat("x", 10000),
		"Bearer abc.def.ghi",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			claims, err := codec.Validate(input, time.Now())
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		}, "input %q", input)
	}
}

func TestTokenClaims_PrincipalID(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Now()

	sign := func(subject string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}).SignedString(testSecret)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		subject string
	}{
		{name: "missing subject", subject: ""},
		{name: "non-uuid subject", subject: "42"},
		{name: "nil uuid subject", subject: uuid.Nil.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Validate(sign(tt.subject), now)
			require.NoError(t, err, "signature and lifetime are valid")

			_, err = claims.PrincipalID()
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}

	t.Run("nil claims", func(t *testing.T) {
		var claims *TokenClaims
		_, err := claims.PrincipalID()
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestTokenCodec_IssueWithTTL(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("custom ttl", func(t *testing.T) {
		token, exp, err := codec.IssueWithTTL(uuid.New(), "alice", now, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, now.Add(time.Minute), exp)

		_, err = codec.Validate(token, now.Add(2*time.Minute))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		_, _, err := codec.IssueWithTTL(uuid.New(), "alice", now, 0)
		assert.Error(t, err)
	})

	t.Run("nil principal", func(t *testing.T) {
		_, _, err := codec.IssueWithTTL(uuid.Nil, "alice", now, time.Minute)
		assert.Error(t, err)
	})
}

func signRaw(t *testing.T, subject string, now time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return token
}
