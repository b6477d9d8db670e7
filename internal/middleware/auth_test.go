package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/conduitapp/conduit-api/internal/auth"
	"github.com/conduitapp/conduit-api/internal/models"
	"github.com/conduitapp/conduit-api/internal/request"
	"github.com/conduitapp/conduit-api/internal/token"
)

type emptyUserStore struct{}

func (emptyUserStore) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, nil
}

func newTestGate(t *testing.T) (func(http.Handler) http.Handler, *token.Codec) {
	t.Helper()

	keys, err := token.NewKeyMaterial()
	if err != nil {
		t.Fatalf("NewKeyMaterial: %v", err)
	}
	codec := token.NewCodec(keys)
	resolver := auth.NewResolver(codec, emptyUserStore{}, auth.BcryptHasher{})

	return Auth(DefaultPolicy(), resolver, zap.NewNop(), nil), codec
}

func TestAuth_MissingCredentialOnProtectedRoute(t *testing.T) {
	t.Parallel()

	gate, _ := newTestGate(t)

	handlerCalled := false
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if handlerCalled {
		t.Error("handler must not run for a rejected request")
	}
}

func TestAuth_AnonymousOnPublicRoute(t *testing.T) {
	t.Parallel()

	gate, _ := newTestGate(t)

	var seen *auth.Identity
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = request.IdentityFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if seen != nil {
		t.Errorf("expected anonymous request, got identity %+v", seen)
	}
}

func TestAuth_ValidTokenAttachesIdentity(t *testing.T) {
	t.Parallel()

	gate, codec := newTestGate(t)

	raw, err := codec.Issue(token.Claims{Subject: "a@x.com", Username: "alice", Role: "USER"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var seen *auth.Identity
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = request.IdentityFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen == nil || seen.Username != "alice" || seen.Role != auth.RoleUser {
		t.Errorf("expected identity alice/USER, got %+v", seen)
	}
}

func TestAuth_InvalidTokenRejectedEvenOnPublicRoute(t *testing.T) {
	t.Parallel()

	gate, _ := newTestGate(t)

	handlerCalled := false
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	// A credential that is present but unresolvable rejects the request even
	// though the route itself is public.
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if handlerCalled {
		t.Error("handler must not run for a rejected request")
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	guard := RequireRole(auth.RoleAdmin, zap.NewNop())

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{name: "admin allowed", identity: auth.NewIdentity("root", auth.RoleAdmin), want: http.StatusOK},
		{name: "user forbidden", identity: auth.NewIdentity("alice", auth.RoleUser), want: http.StatusForbidden},
		{name: "anonymous forbidden", identity: nil, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
			if tt.identity != nil {
				req = req.WithContext(request.WithIdentity(req.Context(), tt.identity))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
