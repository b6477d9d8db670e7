package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/conduitapp/conduit-api/internal/metrics"
	"github.com/conduitapp/conduit-api/internal/token"
	"github.com/conduitapp/conduit-api/internal/validation"
)

// TokenHandler mints tokens for arbitrary identities. It is an operator
// tool for exercising clients against the API and is only mounted when
// TOKEN_DEBUG_MINT is enabled; the route additionally requires an ADMIN
// caller.
type TokenHandler struct {
	codec     *token.Codec
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(codec *token.Codec, collector *metrics.Collector, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{codec: codec, collector: collector, logger: logger}
}

// Mint handles GET /api/token
func (h *TokenHandler) Mint(w http.ResponseWriter, r *http.Request) {
	login := r.URL.Query().Get("login")
	role := r.URL.Query().Get("role")

	if login == "" {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Missing login parameter")
		return
	}
	if err := validation.ValidateRole(role); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	signed, err := h.codec.Issue(token.Claims{
		Subject:  login,
		Username: login,
		Role:     role,
	})
	if err != nil {
		h.logger.Error("token_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to mint token")
		return
	}

	h.collector.RecordTokenIssued()
	h.logger.Info("debug_token_minted", zap.String("login", login), zap.String("role", role))

	respondJSON(w, http.StatusOK, map[string]string{
		"token": signed,
		"login": login,
		"role":  role,
	})
}
