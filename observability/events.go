// Package observability records what happens in the wizard (intakes created,
// sections resolved, fallbacks served) and generation timings in SQLite.
//
// Writes never fail the caller: errors are logged via slog and dropped, so a
// broken event store cannot take a page down.
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/diagnostico/idgen"
	"github.com/hazyhaar/diagnostico/kit"
)

// Event types.
const (
	EventIntakeCreated      = "intake_created"
	EventIntakeRejected     = "intake_rejected"
	EventSessionReset       = "session_reset"
	EventSectionResolved    = "section_resolved"
	EventSectionRegenerated = "section_regenerated"
	EventBriefExported      = "brief_exported"
)

// Event is one wizard event. Outcome is "generated" or the fallback kind for
// section events, "ok"/"invalid" for intake events.
type Event struct {
	Type    string
	Section string
	Outcome string
	Details map[string]any
}

// EventLogger writes wizard events.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
	now   func() time.Time
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger on db. The caller applies Schema.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
		now:   time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent records ev with the session reference and trace id found in ctx.
// A nil receiver is a no-op.
func (l *EventLogger) LogEvent(ctx context.Context, ev Event) {
	if l == nil {
		return
	}
	var details sql.NullString
	if len(ev.Details) > 0 {
		if b, err := json.Marshal(ev.Details); err == nil {
			details = sql.NullString{String: string(b), Valid: true}
		}
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO wizard_events (
			event_id, event_type, session_ref, trace_id, section, outcome, details, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		l.newID(), ev.Type, kit.GetSessionRef(ctx), kit.GetTraceID(ctx),
		ev.Section, ev.Outcome, details, l.now().UnixMilli())
	if err != nil {
		slog.Error("observability event log failed", "error", err, "event_type", ev.Type)
	}
}

// StoredEvent is an Event read back from the log.
type StoredEvent struct {
	ID         string
	Type       string
	SessionRef string
	TraceID    string
	Section    string
	Outcome    string
	Details    string
	CreatedAt  time.Time
}

// Recent returns up to limit events, newest first. An empty eventType
// matches every type.
func (l *EventLogger) Recent(ctx context.Context, eventType string, limit int) ([]StoredEvent, error) {
	q := `SELECT event_id, event_type, COALESCE(session_ref,''), COALESCE(trace_id,''),
		COALESCE(section,''), COALESCE(outcome,''), COALESCE(details,''), created_at
		FROM wizard_events`
	var args []any
	if eventType != "" {
		q += " WHERE event_type = ?"
		args = append(args, eventType)
	}
	q += " ORDER BY created_at DESC, event_id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("observability: query events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var ms int64
		if err := rows.Scan(&e.ID, &e.Type, &e.SessionRef, &e.TraceID, &e.Section, &e.Outcome, &e.Details, &ms); err != nil {
			return nil, fmt.Errorf("observability: scan event: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Cleanup deletes events older than retention and returns the count removed.
func (l *EventLogger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UnixMilli()
	res, err := l.db.ExecContext(ctx, `DELETE FROM wizard_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("observability: cleanup events: %w", err)
	}
	return res.RowsAffected()
}
