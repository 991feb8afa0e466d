package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrTxConflict is returned once the retry budget for conflicting
// concurrent writers is exhausted. Callers surface it as ledger contention.
var ErrTxConflict = errors.New("transaction conflict")

// maxTxAttempts bounds optimistic retries. Each retry re-runs the whole
// read-decide-write sequence from a fresh read.
const maxTxAttempts = 3

// DBTX is the query surface shared by *sqlx.DB and *sqlx.Tx, letting a
// repository run against either the pool or an open transaction.
type DBTX interface {
	sqlx.Ext
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// InTx runs fn inside a transaction, retrying the entire function on
// conflict with concurrent writers. Partial application is impossible: a
// conflicted attempt is rolled back wholesale before the next fresh read.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		err = fn(tx)
		if err == nil {
			err = tx.Commit()
			if err == nil {
				return nil
			}
		} else {
			_ = tx.Rollback()
		}

		if !isConflict(err) {
			return err
		}

		lastErr = err
		slog.Warn("transaction conflict, retrying", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	return fmt.Errorf("%w: %v", ErrTxConflict, lastErr)
}

// isConflict recognizes lock contention and serialization failures across
// the sqlite and postgres drivers.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || // sqlite
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLSTATE 40001") || // pg serialization failure
		strings.Contains(msg, "SQLSTATE 40P01") // pg deadlock
}
