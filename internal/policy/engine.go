package policy

import (
	"github.com/upb/blog-api/models"
)

const (
	msgUnauthenticated = "authentication required"
	msgAdminRequired   = "admin privileges required"
	msgOwnerRequired   = "only the owner may modify this resource"
	msgInactive        = "account is disabled"
)

// Check is a deferred decision, used for composition
type Check func() Decision

// RequireAdmin allows admins only
func RequireAdmin(principal *models.User) Decision {
	if principal == nil {
		return Denied(ReasonUnauthenticated, msgUnauthenticated)
	}
	if !principal.IsAdmin {
		return Denied(ReasonAdminRequired, msgAdminRequired)
	}
	return Allowed()
}

// RequireOwner allows the owner of resource only
func RequireOwner(principal *models.User, resource Owned) Decision {
	if principal == nil {
		return Denied(ReasonUnauthenticated, msgUnauthenticated)
	}
	if resource == nil || resource.OwnerID() != principal.ID {
		return Denied(ReasonOwnerRequired, msgOwnerRequired)
	}
	return Allowed()
}

// RequireActive allows active accounts only
func RequireActive(principal *models.User) Decision {
	if principal == nil {
		return Denied(ReasonUnauthenticated, msgUnauthenticated)
	}
	if !principal.IsActive {
		return Denied(ReasonInactive, msgInactive)
	}
	return Allowed()
}

// Admin defers RequireAdmin
func Admin(principal *models.User) Check {
	return func() Decision { return RequireAdmin(principal) }
}

// Owner defers RequireOwner
func Owner(principal *models.User, resource Owned) Check {
	return func() Decision { return RequireOwner(principal, resource) }
}

// Active defers RequireActive
func Active(principal *models.User) Check {
	return func() Decision { return RequireActive(principal) }
}

// AnyOf allows as soon as one check allows. When every check denies, the first
// denial is returned. No checks means deny.
func AnyOf(checks ...Check) Decision {
	var first *Decision
	for _, check := range checks {
		d := check()
		if d.IsAllowed() {
			return d
		}
		if first == nil {
			first = &d
		}
	}
	if first == nil {
		return Denied(ReasonNoRules, "no rule allows this operation")
	}
	return *first
}

// AllOf denies on the first denying check. No checks means allow.
func AllOf(checks ...Check) Decision {
	for _, check := range checks {
		if d := check(); !d.IsAllowed() {
			return d
		}
	}
	return Allowed()
}
