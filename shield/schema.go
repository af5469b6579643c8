package shield

// Schema holds the rate_limits table. One row per "METHOD /path" endpoint;
// endpoints without a row are not limited.
const Schema = `
CREATE TABLE IF NOT EXISTS rate_limits (
    endpoint       TEXT PRIMARY KEY,
    max_requests   INTEGER NOT NULL CHECK (max_requests >= 0),
    window_seconds INTEGER NOT NULL CHECK (window_seconds > 0),
    enabled        INTEGER NOT NULL DEFAULT 1
);
`
