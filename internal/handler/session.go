package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stridelab/pacequest/internal/ctxkeys"
	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/track"
	"github.com/stridelab/pacequest/internal/validation"
)

type SessionHandler struct {
	sessions *track.Manager
}

func NewSessionHandler(sessions *track.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type startSessionRequest struct {
	ActivityType model.ActivityType `json:"activity_type"`
}

// Start begins a tracking session for the caller.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.sessions.Start(userID, req.ActivityType)
	if err != nil {
		switch {
		case errors.Is(err, track.ErrBadActivity):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, track.ErrSessionExists):
			writeError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to start session", "error", err, "user_id", userID)
			writeError(w, http.StatusInternalServerError, "failed to start session")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rec.Snapshot())
}

// Fix feeds one raw location sample into the live session.
func (h *SessionHandler) Fix(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var fix model.LocationFix
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateFix(fix); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.sessions.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	err = rec.Update(fix)
	if errors.Is(err, track.ErrSessionPaused) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec.Snapshot())
}

// Snapshot returns the live session state for rendering.
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	rec, err := h.sessions.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec.Snapshot())
}

// Pause suspends fix processing without tearing down the session.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	rec, err := h.sessions.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	rec.Pause()
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

// Resume continues a paused session from its stored elapsed offset.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	rec, err := h.sessions.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	rec.Resume()
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

// Stop finishes the session and returns the final snapshot for the award
// flow.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	snapshot, err := h.sessions.Stop(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// Discard drops the in-memory session. No ledger mutation has occurred, so
// there is nothing to compensate.
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	err := h.sessions.Discard(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
