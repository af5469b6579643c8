package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hazyhaar/diagnostico/kit"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// withToken attaches a freshly issued token to ctx.
func withToken(ctx context.Context, token string) context.Context {
	ctx = context.WithValue(ctx, tokenKey, token)
	return kit.WithSessionRef(ctx, sessionRef(token))
}
