// Package auth provides authentication primitives for the blog API.
//
// This package implements:
//   - Password hashing and verification (bcrypt)
//   - Signed, expiring bearer tokens (HS256 JWT)
//   - Resolution of a token or a username/password pair into an active user
//
// Authorization decisions live in package policy; this package only answers
// "who is calling".
package auth
