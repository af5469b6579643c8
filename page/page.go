// Package page renders the wizard pages: one layout shared by every step, the
// intake form for Home and a single parameterized body for the five content
// sections. Templates and static assets are embedded in the binary.
//
// Intake record fields arrive already HTML-escaped and resolved section HTML
// is trusted as-is, so both are injected as template.HTML. Everything else
// (form values echoed back, labels) goes through html/template escaping.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Title is the document title of every page.
const Title = "Diagnóstico 10 Dias"

// HomeData feeds the intake form.
type HomeData struct {
	// GenerationEnabled drives the demo-mode banner.
	GenerationEnabled bool
	// Missing lists the labels of blank required fields after a failed submit.
	Missing []string
	// Form echoes the submitted values back into the inputs.
	Form               url.Values
	RequireCompanySize bool
}

// SectionData feeds one content step.
type SectionData struct {
	Record intake.Record
	Result content.Result
	// Issued is shown on the brief.
	Issued time.Time
}

type sectionMeta struct {
	Heading string
	Icon    string
	Card    string
	NextCTA string
}

var sectionMetas = map[wizard.Section]sectionMeta{
	wizard.SectionScope:   {"Escopo e Metas SMART", "bi-bullseye", "Metas de Transformação", "Próximo: Mapeamento de Sistemas"},
	wizard.SectionMap:     {"Mapa de Sistemas e Gargalos", "bi-diagram-3", "Análise de Arquitetura de Sistemas", "Próximo: Análise de ROI"},
	wizard.SectionROI:     {"Análise de Retorno (ROI)", "bi-calculator", "Impacto Financeiro da Transformação", "Próximo: Roadmap de Execução"},
	wizard.SectionRoadmap: {"Roadmap de Execução", "bi-map", "Plano de Implementação", "Próximo: Brief Final"},
	wizard.SectionBrief:   {"Brief Executivo Final", "bi-file-earmark-text", "Brief Executivo", ""},
}

// view is the root value handed to the layout.
type view struct {
	Title      string
	Current    wizard.Step
	Indicators []wizard.Indicator
	Home       *HomeData
	Section    *sectionView
}

type sectionView struct {
	SectionData
	Meta sectionMeta
	Prev wizard.Step
	Next wizard.Step
}

// Renderer executes the embedded templates.
type Renderer struct {
	home    *template.Template
	section *template.Template
}

var funcs = template.FuncMap{
	// trusted marks text that is already escaped or trusted markup.
	"trusted":   func(s string) template.HTML { return template.HTML(s) },
	"options":   intake.Industries,
	"sizes":     intake.CompanySizes,
	"timelines": intake.Timelines,
	"date":      func(t time.Time) string { return t.Format("02/01/2006") },
	"formValue": func(v url.Values, key string) string {
		if v == nil {
			return ""
		}
		return v.Get(key)
	},
	"selected": func(v url.Values, key, want string) bool {
		return v != nil && v.Get(key) == want
	},
	"timelineSelected": func(v url.Values, days int) bool {
		got := ""
		if v != nil {
			got = v.Get(intake.KeyTimeline)
		}
		if got == "" {
			return days == intake.DefaultTimelineDays
		}
		return got == fmt.Sprint(days)
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	parse := func(body string) (*template.Template, error) {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+body)
		if err != nil {
			return nil, fmt.Errorf("page: parse %s: %w", body, err)
		}
		return t, nil
	}
	home, err := parse("home.html")
	if err != nil {
		return nil, err
	}
	section, err := parse("section.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{home: home, section: section}, nil
}

// Home renders the intake form.
func (r *Renderer) Home(w io.Writer, d HomeData) error {
	return r.execute(w, r.home, view{
		Title:      Title,
		Current:    wizard.Home,
		Indicators: wizard.Indicators(wizard.Home),
		Home:       &d,
	})
}

// Section renders the step carrying d.Result.Section.
func (r *Renderer) Section(w io.Writer, d SectionData) error {
	meta, ok := sectionMetas[d.Result.Section]
	if !ok {
		return fmt.Errorf("page: %w: %q", content.ErrInvalidSection, d.Result.Section)
	}
	step := d.Result.Section.Step()
	sv := &sectionView{SectionData: d, Meta: meta}
	sv.Prev, _ = step.Prev()
	sv.Next, _ = step.Next()
	return r.execute(w, r.section, view{
		Title:      meta.Heading + " · " + Title,
		Current:    step,
		Indicators: wizard.Indicators(step),
		Section:    sv,
	})
}

// execute buffers the output so a template error never leaves a half-written page.
func (r *Renderer) execute(w io.Writer, t *template.Template, v view) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("page: render: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
