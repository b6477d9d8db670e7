package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/conduitapp/conduit-api/internal/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithIdentity returns a context carrying the resolved identity. The value is
// read-only and scoped to a single request.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity attached to the request, or nil if
// the request is anonymous.
func IdentityFromContext(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(identityContextKey).(*auth.Identity)
	return identity
}
