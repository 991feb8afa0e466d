package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stridelab/pacequest/internal/ctxkeys"
	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/service"
)

type ChallengeHandler struct {
	lifecycle *service.Lifecycle
	users     *service.Users
}

func NewChallengeHandler(lifecycle *service.Lifecycle, users *service.Users) *ChallengeHandler {
	return &ChallengeHandler{lifecycle: lifecycle, users: users}
}

type createChallengeRequest struct {
	Title                 string                      `json:"title"`
	Unit                  model.Unit                  `json:"unit"`
	Goal                  float64                     `json:"goal"`
	GroupType             model.GroupType             `json:"group_type"`
	CompletionRequirement model.CompletionRequirement `json:"completion_requirement"`
	WagerXP               int                         `json:"wager_xp"`
	XPReward              int                         `json:"xp_reward"`
}

// Create opens a new challenge with the caller as first participant.
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req createChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Goal <= 0 {
		writeError(w, http.StatusBadRequest, "goal must be positive")
		return
	}

	_, err := h.users.Ensure(userID, "")
	if err != nil {
		slog.Error("failed to ensure user", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	challenge, err := h.lifecycle.CreateChallenge(userID, &model.Challenge{
		Title:                 req.Title,
		Unit:                  req.Unit,
		Goal:                  req.Goal,
		GroupType:             req.GroupType,
		CompletionRequirement: req.CompletionRequirement,
		WagerXP:               req.WagerXP,
		XPReward:              req.XPReward,
	})
	if err != nil {
		slog.Error("failed to create challenge", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to create challenge")
		return
	}

	writeJSON(w, http.StatusCreated, challenge)
}

// Join adds the caller to an existing challenge.
func (h *ChallengeHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	challengeID := r.PathValue("id")

	_, err := h.users.Ensure(userID, "")
	if err != nil {
		slog.Error("failed to ensure user", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	err = h.lifecycle.Join(challengeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDataUnavailable):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrChallengeFull),
			errors.Is(err, service.ErrChallengeClosed):
			writeError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to join challenge", "error", err, "challenge_id", challengeID)
			writeError(w, http.StatusInternalServerError, "failed to join challenge")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type challengeResponse struct {
	Challenge    *model.Challenge              `json:"challenge"`
	Participants []*model.ChallengeParticipant `json:"participants"`
}

// Get returns a challenge with per-user progress.
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("id")

	challenge, participants, err := h.lifecycle.ChallengeWithParticipants(challengeID)
	if err != nil {
		if errors.Is(err, service.ErrDataUnavailable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to load challenge", "error", err, "challenge_id", challengeID)
		writeError(w, http.StatusInternalServerError, "failed to load challenge")
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{Challenge: challenge, Participants: participants})
}

type syncProgressRequest struct {
	Delta float64 `json:"delta"`
}

// Sync advances the caller's challenge progress outside the award flow
// (e.g. a manual device sync). Additive, same rule as the ledger.
func (h *ChallengeHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	challengeID := r.PathValue("id")

	var req syncProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta < 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-negative")
		return
	}

	err := h.lifecycle.SyncProgress(challengeID, userID, req.Delta)
	if err != nil {
		if errors.Is(err, service.ErrDataUnavailable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to sync challenge progress", "error", err, "challenge_id", challengeID)
		writeError(w, http.StatusInternalServerError, "failed to sync progress")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Progress evaluates the caller's live progress in a challenge.
func (h *ChallengeHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	challengeID := r.PathValue("id")

	report, err := h.lifecycle.ChallengeProgress(challengeID, userID, statsFromQuery(r))
	if err != nil {
		if errors.Is(err, service.ErrDataUnavailable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to evaluate challenge progress", "error", err, "challenge_id", challengeID)
		writeError(w, http.StatusInternalServerError, "failed to evaluate progress")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
