package shield

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig defines the rate limit for a single endpoint.
type RateLimitConfig struct {
	MaxRequests   int
	WindowSeconds int
	Enabled       bool
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter provides per-IP, per-endpoint fixed-window rate limiting. Rules
// live in the rate_limits table, keyed "METHOD /path", and are reloaded by Run.
// Endpoints without an enabled rule are not limited.
type RateLimiter struct {
	db      *sql.DB
	rules   map[string]RateLimitConfig
	buckets sync.Map
	mu      sync.RWMutex
	exclude []string

	// trustProxy keys buckets on X-Forwarded-For instead of RemoteAddr.
	trustProxy bool
	now        func() time.Time
}

// NewRateLimiter creates a rate limiter reading rules from db. Paths starting
// with one of excludePrefixes are never limited. trustProxy must only be set
// when a reverse proxy in front of the service rewrites X-Forwarded-For.
func NewRateLimiter(db *sql.DB, trustProxy bool, excludePrefixes ...string) *RateLimiter {
	rl := &RateLimiter{
		db:         db,
		rules:      make(map[string]RateLimitConfig),
		exclude:    excludePrefixes,
		trustProxy: trustProxy,
		now:        time.Now,
	}
	rl.reload(context.Background())
	return rl
}

// SetRule upserts the rule for endpoint ("POST /api/regenerate") and reloads.
func (rl *RateLimiter) SetRule(ctx context.Context, endpoint string, cfg RateLimitConfig) error {
	enabled := 0
	if cfg.Enabled {
		enabled = 1
	}
	_, err := rl.db.ExecContext(ctx, `
		INSERT INTO rate_limits (endpoint, max_requests, window_seconds, enabled) VALUES (?,?,?,?)
		ON CONFLICT(endpoint) DO UPDATE SET
			max_requests = excluded.max_requests,
			window_seconds = excluded.window_seconds,
			enabled = excluded.enabled`,
		endpoint, cfg.MaxRequests, cfg.WindowSeconds, enabled)
	if err != nil {
		return fmt.Errorf("ratelimit: set rule %q: %w", endpoint, err)
	}
	rl.reload(ctx)
	return nil
}

// Run reloads rules every minute and drops expired buckets every five minutes
// until ctx is done. It always returns nil.
func (rl *RateLimiter) Run(ctx context.Context) error {
	reloadTick := time.NewTicker(60 * time.Second)
	gcTick := time.NewTicker(5 * time.Minute)
	defer reloadTick.Stop()
	defer gcTick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reloadTick.C:
			rl.reload(ctx)
		case <-gcTick.C:
			rl.gc()
		}
	}
}

func (rl *RateLimiter) reload(ctx context.Context) {
	rows, err := rl.db.QueryContext(ctx, `SELECT endpoint, max_requests, window_seconds, enabled FROM rate_limits`)
	if err != nil {
		slog.Warn("ratelimit: failed to reload rules", "error", err)
		return
	}
	defer rows.Close()

	rules := make(map[string]RateLimitConfig)
	for rows.Next() {
		var endpoint string
		var cfg RateLimitConfig
		var enabled int
		if err := rows.Scan(&endpoint, &cfg.MaxRequests, &cfg.WindowSeconds, &enabled); err != nil {
			continue
		}
		cfg.Enabled = enabled == 1
		rules[endpoint] = cfg
	}

	rl.mu.Lock()
	rl.rules = rules
	rl.mu.Unlock()

	slog.Debug("ratelimit: rules reloaded", "count", len(rules))
}

func (rl *RateLimiter) gc() {
	now := rl.now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) allow(ip, endpoint string) bool {
	rl.mu.RLock()
	cfg, ok := rl.rules[endpoint]
	rl.mu.RUnlock()
	if !ok || !cfg.Enabled {
		return true
	}

	window := time.Duration(cfg.WindowSeconds) * time.Second
	now := rl.now()
	val, _ := rl.buckets.LoadOrStore(ip+":"+endpoint, &bucket{resetAt: now.Add(window)})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}
	b.count++
	return b.count <= cfg.MaxRequests
}

// Middleware enforces the rate limits. Blocked API calls get a 429 JSON
// error body; other paths get a plain 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		endpoint := r.Method + " " + r.URL.Path
		ip := ClientIP(r, rl.trustProxy)
		if rl.allow(ip, endpoint) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("ratelimit: request blocked", "ip", ip, "endpoint", endpoint)

		rl.mu.RLock()
		window := rl.rules[endpoint].WindowSeconds
		rl.mu.RUnlock()
		w.Header().Set("Retry-After", strconv.Itoa(window))

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Muitas requisições. Aguarde um momento e tente novamente.",
			})
			return
		}
		http.Error(w, "Muitas requisições. Aguarde um momento.", http.StatusTooManyRequests)
	})
}

// ClientIP returns the peer address of r. With trustProxy it returns the
// last X-Forwarded-For hop instead, the one appended by the proxy itself;
// earlier hops are client-supplied.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if i := strings.LastIndexByte(xff, ','); i >= 0 {
				xff = xff[i+1:]
			}
			if hop := strings.TrimSpace(xff); hop != "" {
				return hop
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
