package auth

import (
	"context"
	"fmt"

	"github.com/conduitapp/conduit-api/internal/models"
	"github.com/conduitapp/conduit-api/internal/token"
)

// UserStore is the lookup surface the resolver needs from the user
// repository. A nil user with a nil error means the identifier is unknown.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Resolver maps credentials or verified tokens to an application identity.
type Resolver struct {
	codec  *token.Codec
	users  UserStore
	hasher Hasher
}

// NewResolver creates a resolver over the given codec, user store and hasher.
func NewResolver(codec *token.Codec, users UserStore, hasher Hasher) *Resolver {
	return &Resolver{
		codec:  codec,
		users:  users,
		hasher: hasher,
	}
}

// ResolveCredentials authenticates an identifier/secret pair against the user
// store. An unknown identifier and a mismatched secret both fail with
// ErrIdentityNotFound.
func (r *Resolver) ResolveCredentials(ctx context.Context, identifier, secret string) (*Identity, error) {
	user, err := r.users.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !r.hasher.Verify(secret, user.PasswordHash) {
		return nil, ErrIdentityNotFound
	}

	return NewIdentity(user.Username, ParseRole(user.Role)), nil
}

// ResolveToken verifies a bearer token and builds the identity straight from
// its claims. The user store is not re-queried: the token is trusted as a
// snapshot of the identity at issuance, so a role change only takes effect
// after the next login. Verification failures propagate token.ErrTokenInvalid.
func (r *Resolver) ResolveToken(raw string) (*Identity, error) {
	claims, err := r.codec.Verify(raw)
	if err != nil {
		return nil, err
	}

	return NewIdentity(claims.Username, ParseRole(claims.Role)), nil
}
