package shield

import (
	"context"
	"net/http"
)

const headKey contextKey = "shield_head"

// HeadToGet routes HEAD through the GET handlers so probes on "/" or
// "/healthz" get 200 instead of 405. net/http drops the body. Handlers with
// side effects check IsHead and skip them.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r = r.WithContext(context.WithValue(r.Context(), headKey, true))
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}

// IsHead reports whether the request arrived as HEAD before HeadToGet
// rewrote it.
func IsHead(r *http.Request) bool {
	if r.Method == http.MethodHead {
		return true
	}
	head, _ := r.Context().Value(headKey).(bool)
	return head
}
