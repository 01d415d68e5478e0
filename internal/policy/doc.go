// Package policy decides whether a resolved user may perform an operation.
//
// Checks are pure functions over a user and an optional target resource; they
// do no I/O and never consult transport state. Each denial carries a stable
// reason code so the HTTP layer can map it to a status independently of the
// human-readable message.
package policy
