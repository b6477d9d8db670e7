package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/conduitapp/conduit-api/internal/auth"
	"github.com/conduitapp/conduit-api/internal/database"
	"github.com/conduitapp/conduit-api/internal/metrics"
	"github.com/conduitapp/conduit-api/internal/middleware"
	"github.com/conduitapp/conduit-api/internal/models"
	"github.com/conduitapp/conduit-api/internal/token"
)

type fakeUserRepository struct {
	byEmail map[string]*models.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byEmail: make(map[string]*models.User)}
}

func (f *fakeUserRepository) Create(_ context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return database.ErrDuplicate
	}
	for _, existing := range f.byEmail {
		if existing.Username == user.Username {
			return database.ErrDuplicate
		}
	}
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepository) Update(_ context.Context, email string, user *models.User) error {
	if _, ok := f.byEmail[email]; !ok {
		return nil
	}
	if user.Email != email {
		if _, ok := f.byEmail[user.Email]; ok {
			return database.ErrDuplicate
		}
	}
	delete(f.byEmail, email)
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

type fakeFollowerRepository struct {
	edges map[models.Follower]bool
}

func newFakeFollowerRepository() *fakeFollowerRepository {
	return &fakeFollowerRepository{edges: make(map[models.Follower]bool)}
}

func (f *fakeFollowerRepository) FindEdge(_ context.Context, email, follower string) (*models.Follower, error) {
	edge := models.Follower{Email: email, Follower: follower}
	if !f.edges[edge] {
		return nil, nil
	}
	return &edge, nil
}

func (f *fakeFollowerRepository) InsertEdge(_ context.Context, edge *models.Follower) error {
	f.edges[*edge] = true
	return nil
}

func (f *fakeFollowerRepository) DeleteEdge(_ context.Context, edge *models.Follower) error {
	delete(f.edges, *edge)
	return nil
}

var (
	_ database.UserRepositoryInterface     = (*fakeUserRepository)(nil)
	_ database.FollowerRepositoryInterface = (*fakeFollowerRepository)(nil)
)

type testServer struct {
	router    *mux.Router
	users     *fakeUserRepository
	followers *fakeFollowerRepository
	codec     *token.Codec
}

// newTestServer wires handlers behind the same policy and auth middleware
// the real server uses, backed by in-memory repositories.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	keys, err := token.NewKeyMaterial()
	if err != nil {
		t.Fatalf("NewKeyMaterial() error = %v", err)
	}
	codec := token.NewCodec(keys)

	users := newFakeUserRepository()
	followers := newFakeFollowerRepository()
	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}
	resolver := auth.NewResolver(codec, users, hasher)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	logger := zap.NewNop()

	userHandler := NewUserHandler(users, resolver, codec, hasher, collector, logger)
	profileHandler := NewProfileHandler(users, followers, logger)

	router := mux.NewRouter()
	router.Use(middleware.Auth(middleware.DefaultPolicy(), resolver, logger, collector))
	router.HandleFunc("/api/users", userHandler.Register).Methods("POST")
	router.HandleFunc("/api/users/login", userHandler.Login).Methods("POST")
	router.HandleFunc("/api/users", userHandler.GetCurrentUser).Methods("GET")
	router.HandleFunc("/api/users", userHandler.UpdateUser).Methods("PUT")
	router.HandleFunc("/api/profiles/{username}", profileHandler.GetProfile).Methods("GET")
	router.HandleFunc("/api/profiles/{username}/follow", profileHandler.Follow).Methods("POST")
	router.HandleFunc("/api/profiles/{username}/follow", profileHandler.Unfollow).Methods("DELETE")

	return &testServer{router: router, users: users, followers: followers, codec: codec}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) registerUser(t *testing.T, email, password, username string) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/users", "", models.RegisterRequest{
		Email:    email,
		Password: password,
		Username: username,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
}

func (s *testServer) loginUser(t *testing.T, email, password string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/users/login", "", models.LoginRequest{
		Email:    email,
		Password: password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}
	return decodeData(t, rec)["token"].(string)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	return envelope.Data
}

func TestRegisterLoginAndGetCurrentUser(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.registerUser(t, "alice@example.com", "secret123", "alice")

	tok := srv.loginUser(t, "alice@example.com", "secret123")

	rec := srv.do(t, http.MethodGet, "/api/users", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/users status = %d, body = %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["username"] != "alice" {
		t.Errorf("username = %v, want alice", data["username"])
	}
	if data["role"] != "USER" {
		t.Errorf("role = %v, want USER", data["role"])
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.registerUser(t, "alice@example.com", "secret123", "alice")

	rec := srv.do(t, http.MethodPost, "/api/users", "", models.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret123",
		Username: "alice2",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = srv.do(t, http.MethodPost, "/api/users", "", models.RegisterRequest{
		Email:    "other@example.com",
		Password: "secret123",
		Username: "alice",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate username: status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"missing email", models.RegisterRequest{Password: "secret123", Username: "alice"}},
		{"bad email", models.RegisterRequest{Email: "nope", Password: "secret123", Username: "alice"}},
		{"short password", models.RegisterRequest{Email: "a@b.com", Password: "abc", Username: "alice"}},
		{"short username", models.RegisterRequest{Email: "a@b.com", Password: "secret123", Username: "ab"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/users", "", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.registerUser(t, "alice@example.com", "secret123", "alice")

	tests := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Email: "alice@example.com", Password: "wrongpass"}},
		{"unknown email", models.LoginRequest{Email: "ghost@example.com", Password: "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/users/login", "", tt.req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestGetCurrentUserRequiresToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.registerUser(t, "alice@example.com", "secret123", "alice")
	tok := srv.loginUser(t, "alice@example.com", "secret123")

	rec := srv.do(t, http.MethodPut, "/api/users", tok, models.UpdateUserRequest{
		Bio:   "I work at the bank",
		Image: "https://example.com/alice.png",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/users status = %d, body = %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["bio"] != "I work at the bank" {
		t.Errorf("bio = %v", data["bio"])
	}

	stored, _ := srv.users.GetByUsername(context.Background(), "alice")
	if stored == nil || stored.Image != "https://example.com/alice.png" {
		t.Errorf("stored image not updated: %+v", stored)
	}
}

func TestUpdateUserChangesPassword(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.registerUser(t, "alice@example.com", "secret123", "alice")
	tok := srv.loginUser(t, "alice@example.com", "secret123")

	rec := srv.do(t, http.MethodPut, "/api/users", tok, models.UpdateUserRequest{
		Password: "newsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/users status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Old password must stop working and the new one must log in.
	old := srv.do(t, http.MethodPost, "/api/users/login", "", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if old.Code != http.StatusUnauthorized {
		t.Errorf("old password: status = %d, want %d", old.Code, http.StatusUnauthorized)
	}
	srv.loginUser(t, "alice@example.com", "newsecret")
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.registerUser(t, "alice@example.com", "secret123", "alice")
	srv.registerUser(t, "bob@example.com", "secret123", "bob")
	tok := srv.loginUser(t, "alice@example.com", "secret123")

	rec := srv.do(t, http.MethodPut, "/api/users", tok, models.UpdateUserRequest{
		Email: "bob@example.com",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}
