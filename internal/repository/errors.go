// Package repository implements the user directory over MySQL. The
// sentinel errors below let handlers distinguish failure scenarios
// without string matching: ErrUserNotFound maps to HTTP 404,
// ErrUsernameExists to 409 and ErrInvalidCredentials to 401.
package repository

import "errors"

// ErrUserNotFound is returned when no account matches the requested
// id or username for the given role.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when a create would violate the
// unique username constraint.
var ErrUsernameExists = errors.New("username already exists")

// ErrInvalidCredentials is returned when authentication fails, either
// because the account does not exist for the role or the password
// does not match. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")
