package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/stridelab/pacequest/internal/config"
	"github.com/stridelab/pacequest/internal/db"
	"github.com/stridelab/pacequest/internal/repository"
	"github.com/stridelab/pacequest/internal/service"
	"github.com/stridelab/pacequest/internal/track"
)

// App wires every service with its store dependencies injected. There are
// no process-wide singletons: tests construct as many independent instances
// as they need.
type App struct {
	Cfg       *config.Config
	DB        *sqlx.DB
	Sessions  *track.Manager
	Users     *service.Users
	Ledger    *service.Ledger
	Lifecycle *service.Lifecycle
	QuestSync *service.QuestSync
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	questRepository := repository.NewQuestRepository(database)
	challengeRepository := repository.NewChallengeRepository(database)
	activityRepository := repository.NewActivityRepository(database)
	receiptRepository := repository.NewReceiptRepository(database)

	// Services
	questSync := service.NewQuestSync(questRepository)
	ledger := service.NewLedger(
		database,
		userRepository,
		questRepository,
		challengeRepository,
		activityRepository,
		receiptRepository,
		questSync,
	)
	lifecycle := service.NewLifecycle(database, userRepository, questRepository, challengeRepository)
	users := service.NewUsers(userRepository)

	return &App{
		Cfg:       cfg,
		DB:        database,
		Sessions:  track.NewManager(),
		Users:     users,
		Ledger:    ledger,
		Lifecycle: lifecycle,
		QuestSync: questSync,
	}, nil
}

func (a *App) Close() error {
	if a.QuestSync != nil {
		a.QuestSync.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
