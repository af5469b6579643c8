package content

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/wizard"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Variant selects the prompt flavour for a section.
type Variant int

const (
	// Initial is the prompt used when a step is first rendered.
	Initial Variant = iota
	// Alternate is the regenerate prompt: a different angle on the same section.
	Alternate
)

func (v Variant) String() string {
	if v == Alternate {
		return "regenerate"
	}
	return "initial"
}

type promptKey struct {
	section wizard.Section
	variant Variant
}

type promptData struct {
	R    intake.Record
	Date string
}

type prompts map[promptKey]*template.Template

func loadPrompts() (prompts, error) {
	out := make(prompts, 2*len(wizard.Sections()))
	for _, sec := range wizard.Sections() {
		for _, v := range []Variant{Initial, Alternate} {
			name := string(sec) + ".tmpl"
			if v == Alternate {
				name = string(sec) + ".regenerate.tmpl"
			}
			raw, err := promptFS.ReadFile("prompts/" + name)
			if err != nil {
				return nil, fmt.Errorf("content: read prompt %s: %w", name, err)
			}
			t, err := template.New(name).Option("missingkey=error").Parse(string(raw))
			if err != nil {
				return nil, fmt.Errorf("content: parse prompt %s: %w", name, err)
			}
			out[promptKey{sec, v}] = t
		}
	}
	return out, nil
}

func (p prompts) build(sec wizard.Section, v Variant, rec intake.Record, now time.Time) (string, error) {
	t, ok := p[promptKey{sec, v}]
	if !ok {
		return "", ErrInvalidSection
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, promptData{R: rec, Date: now.Format("02/01/2006")}); err != nil {
		return "", fmt.Errorf("content: build %s prompt: %w", sec, err)
	}
	return buf.String(), nil
}
