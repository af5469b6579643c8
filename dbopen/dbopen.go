// Package dbopen opens the SQLite file shared by the session store, the rate
// limiter and the event log, and applies their schemas at startup.
//
//	import _ "modernc.org/sqlite"
//	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll(),
//	    dbopen.WithSchema(session.Schema), dbopen.WithSchema(shield.Schema))
//
// File databases run in WAL mode with synchronous=NORMAL and foreign keys on.
// ":memory:" databases are pinned to one connection; use OpenMemory in tests.
package dbopen

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// DefaultBusyTimeout is the busy_timeout pragma in milliseconds.
const DefaultBusyTimeout = 10_000

type settings struct {
	busyTimeout int
	mkdirAll    bool
	schemas     []string
}

// Option tunes Open.
type Option func(*settings)

// WithBusyTimeout overrides DefaultBusyTimeout.
func WithBusyTimeout(ms int) Option { return func(s *settings) { s.busyTimeout = ms } }

// WithMkdirAll creates the parent directory of the database file.
func WithMkdirAll() Option { return func(s *settings) { s.mkdirAll = true } }

// WithSchema appends idempotent DDL, run in order after the pragmas.
func WithSchema(ddl string) Option {
	return func(s *settings) { s.schemas = append(s.schemas, ddl) }
}

// Open opens path with the "sqlite" driver, which the caller blank-imports.
func Open(path string, opts ...Option) (*sql.DB, error) {
	s := settings{busyTimeout: DefaultBusyTimeout}
	for _, o := range opts {
		o(&s)
	}
	memory := path == Memory

	if s.mkdirAll && !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: create directory for %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := setup(db, s, memory); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: %s: %w", path, err)
	}
	return db, nil
}

func setup(db *sql.DB, s settings, memory bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout),
	}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	for i, ddl := range s.schemas {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("schema #%d: %w", i+1, err)
		}
	}
	return db.Ping()
}

// OpenMemory returns a fresh in-memory database closed at test cleanup.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(Memory, opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
