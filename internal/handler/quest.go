package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stridelab/pacequest/internal/ctxkeys"
	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/service"
)

type QuestHandler struct {
	lifecycle *service.Lifecycle
	users     *service.Users
}

func NewQuestHandler(lifecycle *service.Lifecycle, users *service.Users) *QuestHandler {
	return &QuestHandler{lifecycle: lifecycle, users: users}
}

// Daily returns today's quests, generating them on first access.
func (h *QuestHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	_, err := h.users.Ensure(userID, "")
	if err != nil {
		slog.Error("failed to ensure user", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	quests, err := h.lifecycle.DailyQuests(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load daily quests", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load quests")
		return
	}

	writeJSON(w, http.StatusOK, quests)
}

// Progress evaluates a quest against live session stats supplied in query
// parameters. Pure read, safe to poll during a session.
func (h *QuestHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	questID := r.PathValue("id")

	stats := statsFromQuery(r)
	report, err := h.lifecycle.QuestProgress(userID, questID, stats)
	if err != nil {
		if errors.Is(err, service.ErrDataUnavailable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to evaluate quest progress", "error", err, "quest_id", questID)
		writeError(w, http.StatusInternalServerError, "failed to evaluate progress")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// statsFromQuery reads an optional live stats snapshot from the query
// string for progress polling.
func statsFromQuery(r *http.Request) model.SessionStats {
	q := r.URL.Query()
	f := func(key string) float64 {
		v, _ := strconv.ParseFloat(q.Get(key), 64)
		return v
	}
	i := func(key string) int {
		v, _ := strconv.Atoi(q.Get(key))
		return v
	}
	return model.SessionStats{
		DistanceM: f("distance_m"),
		DurationS: f("duration_s"),
		Steps:     i("steps"),
		Reps:      i("reps"),
		Calories:  f("calories"),
		AvgPace:   f("avg_pace"),
	}
}
