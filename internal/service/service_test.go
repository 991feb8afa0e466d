package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stridelab/pacequest/internal/db"
	"github.com/stridelab/pacequest/internal/repository"
)

// testEnv wires the full service stack against a throwaway sqlite file,
// running the real migrations so tests exercise the same schema and
// constraints as production.
type testEnv struct {
	db         *sqlx.DB
	users      repository.UserRepository
	quests     repository.QuestRepository
	challenges repository.ChallengeRepository
	activities repository.ActivityRepository
	receipts   repository.ReceiptRepository

	questSync *QuestSync
	ledger    *Ledger
	lifecycle *Lifecycle
	profile   *Users
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	conn, err := db.Init("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.RunMigrations(conn.DB, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:         conn,
		users:      repository.NewUserRepository(conn),
		quests:     repository.NewQuestRepository(conn),
		challenges: repository.NewChallengeRepository(conn),
		activities: repository.NewActivityRepository(conn),
		receipts:   repository.NewReceiptRepository(conn),
	}
	env.questSync = NewQuestSync(env.quests)
	t.Cleanup(env.questSync.Close)

	env.ledger = NewLedger(conn, env.users, env.quests, env.challenges, env.activities, env.receipts, env.questSync)
	env.lifecycle = NewLifecycle(conn, env.users, env.quests, env.challenges)
	env.profile = NewUsers(env.users)
	return env
}

func (e *testEnv) mustUser(t *testing.T, id string) {
	t.Helper()
	if _, err := e.profile.Ensure(id, "Test "+id); err != nil {
		t.Fatalf("ensure user %s: %v", id, err)
	}
}

// drainQuestSync flushes pending quest advancements so assertions can read
// stored quest state deterministically.
func (e *testEnv) drainQuestSync(t *testing.T) {
	t.Helper()
	e.questSync.Close()
}

func tomorrow() time.Time {
	return time.Now().AddDate(0, 0, 1)
}
