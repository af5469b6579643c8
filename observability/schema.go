package observability

import "database/sql"

// Schema holds the DDL for the wizard event log and the metrics timeseries.
// It lives in the service database; both tables are append-only.
const Schema = `
CREATE TABLE IF NOT EXISTS wizard_events (
    event_id    TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    session_ref TEXT,
    trace_id    TEXT,
    section     TEXT,
    outcome     TEXT,
    details     TEXT,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wizard_events_type ON wizard_events(event_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_wizard_events_created ON wizard_events(created_at);

CREATE TABLE IF NOT EXISTS metrics_timeseries (
    metric_id   TEXT PRIMARY KEY DEFAULT ('met_' || hex(randomblob(16))),
    metric_name TEXT NOT NULL,
    timestamp   INTEGER NOT NULL,
    value       REAL NOT NULL,
    labels      TEXT,
    unit        TEXT
);
CREATE INDEX IF NOT EXISTS idx_metrics_name_time ON metrics_timeseries(metric_name, timestamp DESC);
`

// Init applies Schema to db.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
