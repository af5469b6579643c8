// Package shield provides the HTTP middleware every route of the service runs
// behind: security headers, body limits, request tracing with a per-request
// logger, HEAD handling, and SQLite-configured rate limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.HeadToGet)
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBody(64 * 1024))
//	r.Use(shield.TraceID)
//	r.Use(shield.NewRateLimiter(db, false).Middleware)
//
// Or apply the default stack in one call:
//
//	stack, rl := shield.DefaultStack(db, false)
//	go rl.Run(ctx)
//	for _, mw := range stack {
//	    r.Use(mw)
//	}
package shield

import (
	"database/sql"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultMaxBody caps form and JSON request bodies.
const DefaultMaxBody = 64 * 1024

// DefaultStack returns the standard middleware stack, ordered
// HeadToGet → SecurityHeaders → MaxBody → TraceID → RateLimiter.
// Health checks and static assets bypass rate limiting. trustProxy is passed
// to NewRateLimiter.
func DefaultStack(db *sql.DB, trustProxy bool) ([]func(http.Handler) http.Handler, *RateLimiter) {
	rl := NewRateLimiter(db, trustProxy, "/healthz", "/static/")
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(DefaultMaxBody),
		TraceID,
		rl.Middleware,
	}, rl
}
