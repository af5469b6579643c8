package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/observability"
	"github.com/hazyhaar/diagnostico/page"
	"github.com/hazyhaar/diagnostico/shield"
	"github.com/hazyhaar/diagnostico/wizard"
)

// Messages returned by the regenerate API.
const (
	msgSessionExpired = "Sessão expirada. Recarregue a página."
	msgInvalidSection = "Seção inválida"
	msgInvalidBody    = "Requisição inválida"
	msgInternal       = "Erro interno ao gerar o conteúdo"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.d.Resolver.GenerationEnabled(),
	})
}

// handleHome resets the session and shows the intake form. HEAD leaves the
// session alone.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, _ := ctx.Value(tokenKey).(string); token != "" && !shield.IsHead(r) {
		if err := s.d.Store.Clear(ctx, token); err != nil {
			logger(r).Error("session reset failed", "error", err)
		}
		s.d.Cookies.Clear(w)
		s.d.Events.LogEvent(ctx, observability.Event{Type: observability.EventSessionReset})
	}
	s.renderHome(w, r, page.HomeData{})
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, d page.HomeData) {
	d.GenerationEnabled = s.d.Resolver.GenerationEnabled()
	d.RequireCompanySize = s.d.Intake.RequireCompanySize
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.d.Pages.Home(w, d); err != nil {
		logger(r).Error("render home", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// handleCreate validates the intake. A complete form is stored and the
// client moves on to Scope; otherwise Home is shown again with every missing
// field listed and nothing is written.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	rec, err := intake.Parse(r.PostForm, s.d.Intake, s.d.Now())
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		s.d.Events.LogEvent(r.Context(), observability.Event{
			Type:    observability.EventIntakeRejected,
			Outcome: "invalid",
			Details: map[string]any{"missing": verr.Labels()},
		})
		logger(r).Info("intake rejected", "missing", verr.Labels())
		s.renderHome(w, r, page.HomeData{Missing: verr.Labels(), Form: r.PostForm})
		return
	}
	if err != nil {
		logger(r).Error("intake parse", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	token := s.d.Cookies.Ensure(w, r)
	if err := s.d.Store.Put(r.Context(), token, rec); err != nil {
		logger(r).Error("session put", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	ctx := withToken(r.Context(), token)
	s.d.Events.LogEvent(ctx, observability.Event{
		Type:    observability.EventIntakeCreated,
		Outcome: "ok",
		Details: map[string]any{"industry": rec.Industry, "timeline": rec.TimelineDays},
	})
	next, _ := wizard.Home.Next()
	http.Redirect(w, r, next.Path(), http.StatusFound)
}

// handleStep renders one guarded content step.
func (s *Server) handleStep(sec wizard.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := recordFrom(r.Context())
		res, err := s.resolve(r, sec, rec, false)
		if err != nil {
			logger(r).Error("resolve section", "section", string(sec), "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = s.d.Pages.Section(w, page.SectionData{Record: rec, Result: res, Issued: s.d.Now()})
		if err != nil {
			logger(r).Error("render section", "section", string(sec), "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// handleExport resolves every section and returns the brief as Markdown.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rec := recordFrom(r.Context())
	results := make([]content.Result, 0, len(wizard.Sections()))
	for _, sec := range wizard.Sections() {
		res, err := s.resolve(r, sec, rec, false)
		if err != nil {
			logger(r).Error("resolve section", "section", string(sec), "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		results = append(results, res)
	}
	doc, err := s.d.Exporter.Document(rec, results, s.d.Now())
	if err != nil {
		logger(r).Error("export brief", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.d.Events.LogEvent(r.Context(), observability.Event{
		Type:    observability.EventBriefExported,
		Section: string(wizard.SectionBrief),
		Outcome: "ok",
	})
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="diagnostico.md"`)
	w.Write(doc)
}

type regenerateRequest struct {
	Section string `json:"section"`
}

type regenerateResponse struct {
	Content   string `json:"content"`
	Generated bool   `json:"generated"`
	Fallback  string `json:"fallback,omitempty"`
}

// handleRegenerate returns a fresh fragment for one section. A generation
// failure still answers 200 with the fallback fragment.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.record(r.Context())
	if err != nil {
		logger(r).Error("session lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, msgSessionExpired)
		return
	}

	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	sec, valid := wizard.ParseSection(req.Section)
	if !valid {
		writeError(w, http.StatusBadRequest, msgInvalidSection)
		return
	}

	res, err := s.resolve(r, sec, rec, true)
	switch {
	case errors.Is(err, content.ErrInvalidSection):
		writeError(w, http.StatusBadRequest, msgInvalidSection)
		return
	case err != nil:
		logger(r).Error("regenerate section", "section", req.Section, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, regenerateResponse{
		Content:   res.HTML,
		Generated: res.Generated,
		Fallback:  res.Fallback,
	})
}

// resolve runs the resolver and records the outcome.
func (s *Server) resolve(r *http.Request, sec wizard.Section, rec intake.Record, regenerate bool) (content.Result, error) {
	ctx := r.Context()
	start := time.Now()
	var (
		res content.Result
		err error
	)
	if regenerate {
		res, err = s.d.Resolver.Regenerate(ctx, sec, rec)
	} else {
		res, err = s.d.Resolver.Resolve(ctx, sec, rec)
	}
	if err != nil {
		return res, err
	}

	outcome := "generated"
	if !res.Generated {
		outcome = res.Fallback
	}
	s.d.Metrics.ObserveGeneration(string(sec), outcome, time.Since(start))

	evType := observability.EventSectionResolved
	if regenerate {
		evType = observability.EventSectionRegenerated
	}
	s.d.Events.LogEvent(ctx, observability.Event{Type: evType, Section: string(sec), Outcome: outcome})
	return res, nil
}
