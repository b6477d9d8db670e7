package middleware

import (
	"net/http"
	"strings"
)

// Requirement is what a route demands from a request before dispatch.
type Requirement int

const (
	// Public routes proceed with or without a credential.
	Public Requirement = iota
	// Authenticated routes reject requests that carry no resolvable identity.
	Authenticated
)

// Rule maps an HTTP method and path pattern to a requirement. An empty
// method matches every method. A pattern ending in "/*" matches any path
// under the prefix; everything else is an exact match.
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

// Policy is a fixed, ordered rule table consulted before handler dispatch.
// The first matching rule wins; a request matching no rule requires
// authentication (fail-closed). Built once at startup, immutable afterwards,
// safe for concurrent reads.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from an ordered rule list.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the rule table for this service: registration and
// login are public, as are health, metrics and the OpenAPI document. Every
// other route, profile reads included, requires an authenticated identity.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Method: http.MethodPost, Pattern: "/api/users", Require: Public},
		Rule{Method: http.MethodPost, Pattern: "/api/users/login", Require: Public},
		Rule{Method: http.MethodGet, Pattern: "/healthz", Require: Public},
		Rule{Method: http.MethodGet, Pattern: "/metrics", Require: Public},
		Rule{Method: http.MethodGet, Pattern: "/api/openapi.yaml", Require: Public},
		Rule{Method: http.MethodGet, Pattern: "/api/openapi.json", Require: Public},
	)
}

// Evaluate returns the requirement for a method/path pair.
func (p *Policy) Evaluate(method, path string) Requirement {
	for _, rule := range p.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if matchPattern(rule.Pattern, path) {
			return rule.Require
		}
	}
	return Authenticated
}

func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == path
}
