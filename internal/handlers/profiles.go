package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/conduitapp/conduit-api/internal/database"
	"github.com/conduitapp/conduit-api/internal/models"
	"github.com/conduitapp/conduit-api/internal/request"
)

// ProfileHandler serves profile views and the follow and unfollow
// operations. All profile routes require an authenticated caller.
type ProfileHandler struct {
	users     database.UserRepositoryInterface
	followers database.FollowerRepositoryInterface
	logger    *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	users database.UserRepositoryInterface,
	followers database.FollowerRepositoryInterface,
	logger *zap.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		users:     users,
		followers: followers,
		logger:    logger,
	}
}

// GetProfile handles GET /api/profiles/{username}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	username := mux.Vars(r)["username"]

	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		h.logger.Error("profile_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load profile")
		return
	}
	if user == nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "Profile not found")
		return
	}

	edge, err := h.followers.FindEdge(r.Context(), user.Email, identity.Username)
	if err != nil {
		h.logger.Error("follow_edge_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, models.Profile{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: edge != nil,
	})
}

// Follow handles POST /api/profiles/{username}/follow
func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.setFollowState(w, r, true)
}

// Unfollow handles DELETE /api/profiles/{username}/follow
func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.setFollowState(w, r, false)
}

func (h *ProfileHandler) setFollowState(w http.ResponseWriter, r *http.Request, follow bool) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	username := mux.Vars(r)["username"]

	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		h.logger.Error("profile_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update follow state")
		return
	}
	if user == nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "Profile not found")
		return
	}

	if user.Username == identity.Username {
		respondJSONError(w, http.StatusUnprocessableEntity, "invalid_target", "Cannot follow yourself")
		return
	}

	edge := &models.Follower{Email: user.Email, Follower: identity.Username}
	if follow {
		err = h.followers.InsertEdge(r.Context(), edge)
	} else {
		err = h.followers.DeleteEdge(r.Context(), edge)
	}
	if err != nil {
		h.logger.Error("follow_edge_write_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update follow state")
		return
	}

	h.logger.Info("follow_state_changed",
		zap.String("follower", identity.Username),
		zap.String("followee", user.Username),
		zap.Bool("following", follow),
	)

	respondJSON(w, http.StatusOK, models.Profile{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: follow,
	})
}
