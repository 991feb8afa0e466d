package handler

import (
	"log/slog"
	"net/http"

	"github.com/stridelab/pacequest/internal/ctxkeys"
	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/service"
)

type ProfileHandler struct {
	users *service.Users
}

func NewProfileHandler(users *service.Users) *ProfileHandler {
	return &ProfileHandler{users: users}
}

type profileResponse struct {
	*model.User
	ActivityCounts map[model.ActivityType]int `json:"activity_counts"`
}

// Get returns the caller's profile with lifetime stats, creating it on
// first contact.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	user, err := h.users.Ensure(userID, "")
	if err != nil {
		slog.Error("failed to load profile", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	counts, err := h.users.ActivityCounts(userID)
	if err != nil {
		slog.Error("failed to load activity counts", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{User: user, ActivityCounts: counts})
}
