package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// Outcome is the result of a check
type Outcome int

const (
	Deny Outcome = iota
	Allow
)

// String implements fmt.Stringer
func (o Outcome) String() string {
	if o == Allow {
		return "allow"
	}
	return "deny"
}

// ReasonCode is a stable machine-readable denial reason.
type ReasonCode string

const (
	ReasonNone            ReasonCode = ""
	ReasonUnauthenticated ReasonCode = "unauthenticated"
	ReasonAdminRequired   ReasonCode = "admin_required"
	ReasonOwnerRequired   ReasonCode = "owner_required"
	ReasonInactive        ReasonCode = "principal_inactive"
	ReasonNoRules         ReasonCode = "no_rules"
)

// Decision is an authorization outcome. The zero value denies.
type Decision struct {
	Outcome Outcome
	Code    ReasonCode
	Reason  string
}

// Allowed returns an allowing decision
func Allowed() Decision {
	return Decision{Outcome: Allow}
}

// Denied returns a denying decision
func Denied(code ReasonCode, reason string) Decision {
	return Decision{Outcome: Deny, Code: code, Reason: reason}
}

// IsAllowed reports whether the decision allows
func (d Decision) IsAllowed() bool {
	return d.Outcome == Allow
}

// WithReason replaces the human-readable reason of a denial, keeping its code.
// Allowing decisions are returned unchanged.
func (d Decision) WithReason(reason string) Decision {
	if d.IsAllowed() {
		return d
	}
	d.Reason = reason
	return d
}

// Err returns nil for an allowing decision and a *DeniedError otherwise
func (d Decision) Err() error {
	if d.IsAllowed() {
		return nil
	}
	return &DeniedError{Decision: d}
}

// String implements fmt.Stringer
func (d Decision) String() string {
	if d.IsAllowed() {
		return d.Outcome.String()
	}
	return fmt.Sprintf("%s(%s): %s", d.Outcome, d.Code, d.Reason)
}

// DeniedError carries a denial through error returns
type DeniedError struct {
	Decision Decision
}

// Error implements the error interface
func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Decision.Reason)
}

// Owned is a resource with a single owner
type Owned interface {
	OwnerID() uuid.UUID
}
