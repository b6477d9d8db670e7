package auth

// Identity is the resolved principal attached to an authenticated request.
// It lives for exactly one request and is never persisted.
type Identity struct {
	Username    string
	Role        Role
	Authorities []string
}

// NewIdentity builds an identity with authorities derived 1:1 from the role.
func NewIdentity(username string, role Role) *Identity {
	return &Identity{
		Username:    username,
		Role:        role,
		Authorities: []string{string(role)},
	}
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role Role) bool {
	return i != nil && i.Role == role
}
