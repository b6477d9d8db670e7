package auth

// Role is the closed set of principal roles.
type Role string

const (
	RoleVisitor Role = "VISITOR"
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleUnknown Role = "UNKNOWN"
)

// ParseRole coerces a free-form role claim into the closed set. Anything
// unrecognized maps to RoleUnknown instead of propagating an arbitrary
// string into the domain.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleVisitor, RoleUser, RoleAdmin:
		return Role(s)
	default:
		return RoleUnknown
	}
}
