package routes

import (
	"net/http"

	"github.com/stridelab/pacequest/internal/app"
	"github.com/stridelab/pacequest/internal/handler"
	"github.com/stridelab/pacequest/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	session := handler.NewSessionHandler(app.Sessions)
	award := handler.NewAwardHandler(app.Ledger, app.Users)
	quest := handler.NewQuestHandler(app.Lifecycle, app.Users)
	challenge := handler.NewChallengeHandler(app.Lifecycle, app.Users)
	profile := handler.NewProfileHandler(app.Users)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Live tracking sessions
	mux.HandleFunc("POST /api/sessions", middleware.RequireUser(session.Start))
	mux.HandleFunc("GET /api/sessions", middleware.RequireUser(session.Snapshot))
	mux.HandleFunc("POST /api/sessions/fixes", middleware.RequireUser(session.Fix))
	mux.HandleFunc("POST /api/sessions/pause", middleware.RequireUser(session.Pause))
	mux.HandleFunc("POST /api/sessions/resume", middleware.RequireUser(session.Resume))
	mux.HandleFunc("POST /api/sessions/stop", middleware.RequireUser(session.Stop))
	mux.HandleFunc("DELETE /api/sessions", middleware.RequireUser(session.Discard))

	// Reward ledger (rate limited; idempotency makes client retries safe)
	awardLimiter := middleware.RateLimitAwards(app.Cfg.AwardRateLimit, app.Cfg.AwardRateWindow)
	mux.HandleFunc("POST /api/awards", awardLimiter(middleware.RequireUser(award.Submit)))

	// Quests
	mux.HandleFunc("GET /api/quests", middleware.RequireUser(quest.Daily))
	mux.HandleFunc("GET /api/quests/{id}/progress", middleware.RequireUser(quest.Progress))

	// Challenges
	mux.HandleFunc("POST /api/challenges", middleware.RequireUser(challenge.Create))
	mux.HandleFunc("GET /api/challenges/{id}", middleware.RequireUser(challenge.Get))
	mux.HandleFunc("POST /api/challenges/{id}/join", middleware.RequireUser(challenge.Join))
	mux.HandleFunc("POST /api/challenges/{id}/sync", middleware.RequireUser(challenge.Sync))
	mux.HandleFunc("GET /api/challenges/{id}/progress", middleware.RequireUser(challenge.Progress))

	// Profile
	mux.HandleFunc("GET /api/profile", middleware.RequireUser(profile.Get))

	return middleware.Chain(mux,
		middleware.RequestLogging,
	)
}
