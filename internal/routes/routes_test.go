package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stridelab/pacequest/internal/app"
	"github.com/stridelab/pacequest/internal/config"
	"github.com/stridelab/pacequest/internal/service"
	"github.com/stridelab/pacequest/internal/track"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		AppName:         "PaceQuest",
		AppEnv:          "test",
		DBDriver:        "sqlite",
		DBConnection:    filepath.Join(t.TempDir(), "test.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
		AwardRateLimit:  100,
		AwardRateWindow: time.Minute,
	}

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return SetupRoutes(a)
}

func doJSON(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d, want 200", rec.Code)
	}
}

func TestMissingUserHeader(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/sessions", "u1", map[string]any{
		"activity_type": "running",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start = %d: %s", rec.Code, rec.Body.String())
	}

	// Starting a second session conflicts.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions", "u1", map[string]any{
		"activity_type": "walking",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate start = %d, want 409", rec.Code)
	}

	// An unknown activity type is a bad request.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions", "u2", map[string]any{
		"activity_type": "parkour",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad activity = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/fixes", "u1", map[string]any{
		"latitude":  46.0,
		"longitude": 7.0,
		"accuracy":  5,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("fix = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/sessions", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot = %d", rec.Code)
	}
	snap := decode[track.Snapshot](t, rec)
	if snap.State != track.StateActive {
		t.Errorf("state = %s, want active", snap.State)
	}
	if len(snap.Coordinates) != 1 {
		t.Errorf("coordinates = %d, want 1", len(snap.Coordinates))
	}

	// Paused sessions drop incoming fixes.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions/pause", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pause = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/sessions/fixes", "u1", map[string]any{
		"latitude":  46.001,
		"longitude": 7.0,
		"accuracy":  5,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("fix while paused = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/resume", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resume = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/stop", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop = %d: %s", rec.Code, rec.Body.String())
	}
	final := decode[track.Snapshot](t, rec)
	if final.State != track.StateFinished {
		t.Errorf("final state = %s, want finished", final.State)
	}

	// The session is gone after stop.
	rec = doJSON(t, h, http.MethodGet, "/api/sessions", "u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("snapshot after stop = %d, want 404", rec.Code)
	}
}

func TestSessionDiscard(t *testing.T) {
	h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/sessions", "u1", map[string]any{
		"activity_type": "cycling",
	})
	rec := doJSON(t, h, http.MethodDelete, "/api/sessions", "u1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("discard = %d, want 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/sessions", "u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second discard = %d, want 404", rec.Code)
	}
}

func TestAwardFunnel(t *testing.T) {
	h := newTestServer(t)

	body := map[string]any{
		"activity_id":   "act-1",
		"activity_type": "walking",
		"stats": map[string]any{
			"distance_m": 2000,
			"duration_s": 1200,
		},
	}

	rec := doJSON(t, h, http.MethodPost, "/api/awards", "u1", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("award = %d: %s", rec.Code, rec.Body.String())
	}
	first := decode[service.AwardResult](t, rec)
	if first.XPEarned != 160 {
		t.Errorf("xp = %d, want 160", first.XPEarned)
	}

	// Client retry: replayed from the receipt with a 200.
	rec = doJSON(t, h, http.MethodPost, "/api/awards", "u1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry = %d: %s", rec.Code, rec.Body.String())
	}
	second := decode[service.AwardResult](t, rec)
	if !second.AlreadyAwarded || second.XPEarned != first.XPEarned {
		t.Errorf("retry result diverged: %+v", second)
	}

	// Profile reflects a single award.
	rec = doJSON(t, h, http.MethodGet, "/api/profile", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile = %d", rec.Code)
	}
	profile := decode[map[string]any](t, rec)
	if xp, _ := profile["total_xp"].(float64); xp != 160 {
		t.Errorf("profile xp = %v, want 160", profile["total_xp"])
	}
}

func TestAwardValidation(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/awards", "u1", map[string]any{
		"activity_type": "walking",
		"stats":         map[string]any{"distance_m": 100, "duration_s": 60},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing activity_id = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/awards", "u1", map[string]any{
		"activity_id":   "act-1",
		"activity_type": "walking",
		"quest_id":      "no-such-quest",
		"stats":         map[string]any{"distance_m": 100, "duration_s": 60},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown quest = %d, want 404", rec.Code)
	}
}

func TestQuestEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/quests", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quests = %d: %s", rec.Code, rec.Body.String())
	}
	quests := decode[[]map[string]any](t, rec)
	if len(quests) != 6 {
		t.Fatalf("daily quests = %d, want 6", len(quests))
	}

	questID, _ := quests[0]["id"].(string)
	rec = doJSON(t, h, http.MethodGet, "/api/quests/"+questID+"/progress?distance_m=1500&duration_s=600", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quest progress = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChallengeEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/challenges", "alice", map[string]any{
		"title":                  "Head to Head",
		"unit":                   "distance",
		"goal":                   10,
		"group_type":             "duo",
		"completion_requirement": "better_than_other",
		"wager_xp":               50,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("missing challenge id")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/challenges/"+id+"/join", "bob", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("join = %d: %s", rec.Code, rec.Body.String())
	}

	// Duo is full.
	rec = doJSON(t, h, http.MethodPost, "/api/challenges/"+id+"/join", "carol", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("third join = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/challenges/"+id+"/sync", "bob", map[string]any{
		"delta": 2.5,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("sync = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/challenges/"+id, "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
}
