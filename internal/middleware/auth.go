package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/conduitapp/conduit-api/internal/auth"
	logpkg "github.com/conduitapp/conduit-api/internal/logger"
	"github.com/conduitapp/conduit-api/internal/metrics"
	"github.com/conduitapp/conduit-api/internal/request"
)

// Auth creates the per-request authentication gate. It reads a bearer token
// from the Authorization header and resolves it to an identity attached to
// the request context. A request without a credential passes through
// anonymously when the policy marks the route public and is rejected with
// 401 otherwise. A request with a credential that fails resolution is
// rejected regardless of the route's rule. Rejection short-circuits the
// request before any handler runs; the gate is evaluated exactly once per
// request.
func Auth(policy *Policy, resolver *auth.Resolver, logger *zap.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if policy.Evaluate(r.Method, r.URL.Path) == Public {
					next.ServeHTTP(w, r)
					return
				}
				logger.Info("request_rejected",
					zap.String("reason", "missing_credential"),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)
				if collector != nil {
					collector.RecordAuthRejection("missing_credential")
				}
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", auth.ErrMissingCredential.Error(), logger)
				return
			}

			identity, err := resolver.ResolveToken(authHeader)
			if err != nil {
				// The cause stays server-side; the client sees one kind.
				logger.Info("request_rejected",
					zap.String("reason", "authentication_failed"),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.Error(err),
				)
				if collector != nil {
					collector.RecordAuthRejection("authentication_failed")
				}
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "authentication failed", logger)
				return
			}

			ctx := request.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on a single role, on top of Auth. This is the
// finer-grained authorization extension point; the default rule table does
// not use it, only the debug token mint route does.
func RequireRole(role auth.Role, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := request.IdentityFromContext(r)
			if !identity.HasRole(role) {
				logger.Info("request_rejected",
					zap.String("reason", "insufficient_role"),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)
				respondErrorJSON(w, r, http.StatusForbidden, "Forbidden", "insufficient role", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
