package auth

import "errors"

var (
	// ErrIdentityNotFound covers both an unknown identifier and a wrong
	// secret, so a failed login does not reveal whether the account exists.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrMissingCredential means a protected route was requested with no
	// usable credential.
	ErrMissingCredential = errors.New("missing credential")
)
