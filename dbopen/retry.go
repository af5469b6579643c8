package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// busyBackoff is the wait before each retry of a write that hit a lock.
var busyBackoff = []time.Duration{50 * time.Millisecond, 150 * time.Millisecond, 400 * time.Millisecond}

// IsBusy reports whether err is SQLite lock contention.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{"SQLITE_BUSY", "SQLITE_LOCKED", "database is locked", "database table is locked"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Exec runs a write and retries it while SQLite reports lock contention.
// Other errors and context cancellation return immediately.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	res, err := db.ExecContext(ctx, query, args...)
	for _, wait := range busyBackoff {
		if !IsBusy(err) {
			return res, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dbopen: retry aborted: %w", ctx.Err())
		case <-time.After(wait):
		}
		res, err = db.ExecContext(ctx, query, args...)
	}
	if IsBusy(err) {
		return nil, fmt.Errorf("dbopen: still busy after %d retries: %w", len(busyBackoff), err)
	}
	return res, err
}
