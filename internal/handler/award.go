package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stridelab/pacequest/internal/ctxkeys"
	"github.com/stridelab/pacequest/internal/repository"
	"github.com/stridelab/pacequest/internal/service"
	"github.com/stridelab/pacequest/internal/validation"
)

type AwardHandler struct {
	ledger *service.Ledger
	users  *service.Users
}

func NewAwardHandler(ledger *service.Ledger, users *service.Users) *AwardHandler {
	return &AwardHandler{ledger: ledger, users: users}
}

// Submit is the single entry point for committing a finished session. All
// flows (manual save, quest, challenge) funnel through here; nothing else
// writes profile or quest state.
func (h *AwardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req service.AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	if err := validation.ValidateAward(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// First contact creates the profile; the ledger requires one.
	_, err := h.users.Ensure(userID, "")
	if err != nil {
		slog.Error("failed to ensure user", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	result, err := h.ledger.AwardXP(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDataUnavailable):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, repository.ErrTxConflict):
			// Retries exhausted; the client may safely resubmit, the
			// receipt guarantees at-most-once reward.
			writeError(w, http.StatusConflict, "ledger contention, please retry")
		default:
			slog.Error("award failed", "error", err, "activity_id", req.ActivityID, "user_id", userID)
			writeError(w, http.StatusInternalServerError, "failed to award activity")
		}
		return
	}

	status := http.StatusOK
	if !result.AlreadyAwarded && !result.Rejected {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
