package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	db.MustExec(`CREATE TABLE entries (id TEXT PRIMARY KEY, value INTEGER NOT NULL)`)
	return db
}

func TestInTxCommits(t *testing.T) {
	db := openTestDB(t)

	err := InTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO entries (id, value) VALUES ('a', 1)`)
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	var value int
	if err := db.Get(&value, `SELECT value FROM entries WHERE id = 'a'`); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if value != 1 {
		t.Errorf("value = %d, want 1", value)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	failure := errors.New("domain failure")

	err := InTx(context.Background(), db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO entries (id, value) VALUES ('a', 1)`); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("got %v, want the fn error", err)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM entries`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("rolled-back write persisted: %d rows", count)
	}
}

func TestInTxRetriesConflicts(t *testing.T) {
	db := openTestDB(t)

	attempts := 0
	err := InTx(context.Background(), db, func(tx *sqlx.Tx) error {
		attempts++
		return errors.New("database is locked")
	})
	if !errors.Is(err, ErrTxConflict) {
		t.Fatalf("got %v, want ErrTxConflict", err)
	}
	if attempts != maxTxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, maxTxAttempts)
	}

	// A conflict that clears on retry succeeds without surfacing an error.
	attempts = 0
	err = InTx(context.Background(), db, func(tx *sqlx.Tx) error {
		attempts++
		if attempts == 1 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("recovered tx: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("ERROR: could not serialize access (SQLSTATE 40001)"), true},
		{errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{errors.New("UNIQUE constraint failed: entries.id"), false},
	}

	for _, tt := range tests {
		if got := isConflict(tt.err); got != tt.want {
			t.Errorf("isConflict(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
