package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/conduitapp/conduit-api/internal/auth"
	"github.com/conduitapp/conduit-api/internal/database"
	"github.com/conduitapp/conduit-api/internal/metrics"
	"github.com/conduitapp/conduit-api/internal/models"
	"github.com/conduitapp/conduit-api/internal/request"
	"github.com/conduitapp/conduit-api/internal/token"
	"github.com/conduitapp/conduit-api/internal/validation"
)

// UserHandler handles account registration, login and the current-user
// endpoints.
type UserHandler struct {
	users     database.UserRepositoryInterface
	resolver  *auth.Resolver
	codec     *token.Codec
	hasher    auth.Hasher
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	users database.UserRepositoryInterface,
	resolver *auth.Resolver,
	codec *token.Codec,
	hasher auth.Hasher,
	collector *metrics.Collector,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		users:     users,
		resolver:  resolver,
		codec:     codec,
		hasher:    hasher,
		collector: collector,
		logger:    logger,
	}
}

// Register handles POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.Error("password_hash_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to register user")
		return
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         string(auth.RoleUser),
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondJSONError(w, http.StatusConflict, "duplicate_user", "Email or username already taken")
			return
		}
		h.logger.Error("user_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to register user")
		return
	}

	h.logger.Info("user_registered", zap.String("username", user.Username))
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	identity, err := h.resolver.ResolveCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotFound) {
			h.collector.RecordLogin("failure")
			respondJSONError(w, http.StatusUnauthorized, "login_failed", "Invalid email or password")
			return
		}
		h.logger.Error("credential_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to log in")
		return
	}

	signed, err := h.codec.Issue(token.Claims{
		Subject:  req.Email,
		Username: identity.Username,
		Role:     string(identity.Role),
	})
	if err != nil {
		h.logger.Error("token_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to log in")
		return
	}

	h.collector.RecordLogin("success")
	h.collector.RecordTokenIssued()
	h.logger.Info("user_logged_in", zap.String("username", identity.Username))

	respondJSON(w, http.StatusOK, map[string]any{
		"token":    signed,
		"username": identity.Username,
		"role":     string(identity.Role),
	})
}

// GetCurrentUser handles GET /api/users
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), identity.Username)
	if err != nil {
		h.logger.Error("user_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load user")
		return
	}
	if user == nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req models.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, err := h.users.GetByUsername(r.Context(), identity.Username)
	if err != nil {
		h.logger.Error("user_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update user")
		return
	}
	if user == nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}

	currentEmail := user.Email

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Password != "" {
		hash, err := h.hasher.Hash(req.Password)
		if err != nil {
			h.logger.Error("password_hash_failed", zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update user")
			return
		}
		user.PasswordHash = hash
	}
	if req.Image != "" {
		user.Image = req.Image
	}
	if req.Bio != "" {
		user.Bio = validation.SanitizeText(req.Bio)
	}

	if err := h.users.Update(r.Context(), currentEmail, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondJSONError(w, http.StatusConflict, "duplicate_user", "Email or username already taken")
			return
		}
		h.logger.Error("user_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update user")
		return
	}

	h.logger.Info("user_updated", zap.String("username", user.Username))
	respondJSON(w, http.StatusOK, user)
}
