// Package web serves the wizard over HTTP: the intake form, the five guarded
// content steps, the out-of-band regenerate API and the Markdown export.
//
// Routes:
//
//	GET  /                  reset the session, intake form
//	POST /create            submit the intake, 302 to /scope
//	GET  /scope /map /roi /roadmap /brief   guarded, 302 to / without intake
//	GET  /brief/export.md   guarded, Markdown brief
//	POST /api/regenerate    {"section": id} -> {"content": html}
//	GET  /healthz           liveness
//	/mcp                    MCP streamable HTTP, when configured
package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/export"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/observability"
	"github.com/hazyhaar/diagnostico/page"
	"github.com/hazyhaar/diagnostico/session"
	"github.com/hazyhaar/diagnostico/shield"
	"github.com/hazyhaar/diagnostico/wizard"
)

// Resolver produces section content. *content.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, sec wizard.Section, rec intake.Record) (content.Result, error)
	Regenerate(ctx context.Context, sec wizard.Section, rec intake.Record) (content.Result, error)
	GenerationEnabled() bool
}

// Deps are the collaborators of a Server. Store, Cookies, Resolver and Pages
// are required; Events, Metrics and MCP may be nil.
type Deps struct {
	Store    *session.Store
	Cookies  *session.Cookies
	Resolver Resolver
	Pages    *page.Renderer
	Exporter *export.Exporter
	Events   *observability.EventLogger
	Metrics  *observability.MetricsManager
	Intake   intake.Options
	// MCP is mounted at /mcp when set.
	MCP http.Handler
	// Middleware wraps every route, outermost first.
	Middleware []func(http.Handler) http.Handler
	Now        func() time.Time
}

// Server holds the handlers.
type Server struct {
	d Deps
}

// New validates deps and builds a Server.
func New(d Deps) (*Server, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("web: session store is required")
	case d.Cookies == nil:
		return nil, errors.New("web: cookies are required")
	case d.Resolver == nil:
		return nil, errors.New("web: resolver is required")
	case d.Pages == nil:
		return nil, errors.New("web: page renderer is required")
	}
	if d.Exporter == nil {
		d.Exporter = export.New()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Server{d: d}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range s.d.Middleware {
		r.Use(mw)
	}
	r.Use(s.withSession)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", page.Static())
	r.Get("/", s.handleHome)
	r.Post("/create", s.handleCreate)

	r.Group(func(r chi.Router) {
		r.Use(s.requireIntake)
		for _, sec := range wizard.Sections() {
			r.Get(sec.Step().Path(), s.handleStep(sec))
		}
		r.Get("/brief/export.md", s.handleExport)
	})

	r.Post("/api/regenerate", s.handleRegenerate)

	if s.d.MCP != nil {
		r.Handle("/mcp", s.d.MCP)
		r.Handle("/mcp/*", s.d.MCP)
	}
	return r
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	recordKey
)

// withSession reads the signed cookie. The token goes into the request
// context; logs and events only ever see its hashed reference.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.d.Cookies.Token(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withToken(r.Context(), token)))
	})
}

// requireIntake redirects to Home unless the session carries an intake record.
func (s *Server) requireIntake(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok, err := s.record(r.Context())
		if err != nil {
			logger(r).Error("session lookup failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		step := wizard.Navigate(stepFor(r.URL.Path), ok)
		if !ok || step == wizard.Home {
			http.Redirect(w, r, wizard.Home.Path(), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), recordKey, rec)))
	})
}

// record loads the intake record of the current session.
func (s *Server) record(ctx context.Context) (intake.Record, bool, error) {
	token, _ := ctx.Value(tokenKey).(string)
	if token == "" {
		return intake.Record{}, false, nil
	}
	return s.d.Store.Get(ctx, token)
}

func recordFrom(ctx context.Context) intake.Record {
	rec, _ := ctx.Value(recordKey).(intake.Record)
	return rec
}

// stepFor maps a guarded path to its step. The export belongs to the brief.
func stepFor(path string) wizard.Step {
	if path == "/brief/export.md" {
		return wizard.Brief
	}
	for _, st := range wizard.All() {
		if st.Path() == path {
			return st
		}
	}
	return 0
}

func sessionRef(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func logger(r *http.Request) *slog.Logger {
	return shield.GetLogger(r.Context())
}
