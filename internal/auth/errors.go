package auth

import (
	"errors"
	"fmt"
)

// Kind classifies an authentication failure.
type Kind string

const (
	KindMissingToken      Kind = "missing_token"
	KindInvalidToken      Kind = "invalid_token"
	KindMalformedPayload  Kind = "malformed_payload"
	KindPrincipalNotFound Kind = "principal_not_found"
	KindPrincipalDisabled Kind = "principal_disabled"
	KindInvalidCredential Kind = "invalid_credential"
)

// Error is an expected, caller-recoverable authentication failure.
// Anything that is not an *Error (hashing or store failures) is internal.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrMissingToken      = &Error{Kind: KindMissingToken, Message: "Not authenticated"}
	ErrInvalidToken      = &Error{Kind: KindInvalidToken, Message: "Invalid or expired token"}
	ErrMalformedPayload  = &Error{Kind: KindMalformedPayload, Message: "Invalid token payload"}
	ErrPrincipalNotFound = &Error{Kind: KindPrincipalNotFound, Message: "User not found"}
	ErrPrincipalDisabled = &Error{Kind: KindPrincipalDisabled, Message: "Account is disabled"}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "Invalid username or password"}
)

// wrap returns a copy of base carrying cause. The sentinel itself is never mutated.
func wrap(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Message: base.Message, Err: cause}
}

// KindOf reports the Kind of an authentication error.
func KindOf(err error) (Kind, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return "", false
}

// RequiresReauthentication reports whether the caller must present a new
// credential. Disabled accounts and bad logins are excluded.
func RequiresReauthentication(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindMissingToken, KindInvalidToken, KindMalformedPayload, KindPrincipalNotFound:
		return true
	}
	return false
}
