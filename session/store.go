// Package session holds the per-browser intake record behind an opaque token.
//
// The record lives server-side in SQLite; the browser only carries the token
// in a signed cookie (see Cookies). One token maps to at most one record, and
// writing a record replaces the previous one wholesale.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/diagnostico/dbopen"
	"github.com/hazyhaar/diagnostico/intake"
)

// Schema creates the intake_sessions table. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS intake_sessions (
    token      TEXT PRIMARY KEY,
    record     TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_intake_sessions_updated ON intake_sessions(updated_at);
`

// DefaultTTL bounds how long a record stays readable after its last write.
const DefaultTTL = 24 * time.Hour

// ErrEmptyToken is returned by Put when no token is given.
var ErrEmptyToken = errors.New("session: empty token")

// Store is the SQLite-backed session store.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the record lifetime. Zero or negative keeps DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store on db. The caller applies Schema.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Put stores rec under token, replacing any previous record.
func (s *Store) Put(ctx context.Context, token string, rec intake.Record) error {
	if token == "" {
		return ErrEmptyToken
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}
	_, err = dbopen.Exec(ctx, s.db, `
		INSERT INTO intake_sessions (token, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		token, string(data), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("session: put: %w", err)
	}
	return nil
}

// Get returns the record stored under token. A missing, expired or unreadable
// record is reported as absent (ok=false) without error; err is reserved for
// database failures.
func (s *Store) Get(ctx context.Context, token string) (intake.Record, bool, error) {
	if token == "" {
		return intake.Record{}, false, nil
	}
	var (
		data      string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT record, updated_at FROM intake_sessions WHERE token = ?`, token,
	).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return intake.Record{}, false, nil
	}
	if err != nil {
		return intake.Record{}, false, fmt.Errorf("session: get: %w", err)
	}
	if s.expired(updatedAt) {
		return intake.Record{}, false, nil
	}
	var rec intake.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		slog.Warn("session: discarding unreadable record", "error", err)
		return intake.Record{}, false, nil
	}
	return rec, true, nil
}

// Clear removes the record stored under token, if any.
func (s *Store) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := dbopen.Exec(ctx, s.db, `DELETE FROM intake_sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Purge deletes every record older than the TTL and returns how many went.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM intake_sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RunJanitor purges expired records every interval until ctx is done.
// It always returns nil so it can run inside an errgroup.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			n, err := s.Purge(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("session janitor", "error", err)
				}
				continue
			}
			if n > 0 {
				slog.Debug("session janitor purged records", "count", n)
			}
		}
	}
}

func (s *Store) expired(updatedAtMs int64) bool {
	return s.now().Sub(time.UnixMilli(updatedAtMs)) > s.ttl
}
