// Package kit carries the request-scoped values and the transport-neutral
// endpoint shape shared by the HTTP handlers and the MCP tools.
package kit

import "context"

type ctxKey int

const (
	traceIDKey ctxKey = iota
	sessionRefKey
	transportKey
)

// Transports reported by GetTransport.
const (
	TransportHTTP = "http"
	TransportMCP  = "mcp"
)

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// WithSessionRef records the opaque reference of the wizard session bound to
// the request. It is a digest of the cookie token, never the token itself.
func WithSessionRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, sessionRefKey, ref)
}

func GetSessionRef(ctx context.Context) string {
	v, _ := ctx.Value(sessionRefKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, transportKey, t)
}

// GetTransport defaults to TransportHTTP.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey).(string); ok {
		return v
	}
	return TransportHTTP
}
