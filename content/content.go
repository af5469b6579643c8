// Package content resolves the HTML body of each diagnostic section.
//
// A Resolver builds a section prompt from the intake record, calls the
// generation backend once at the section's temperature, and cleans the answer.
// Any generation failure (no credentials, quota, transient error, answer too
// short) yields a static fallback fragment for the section instead: the
// Resolver only returns an error for an unknown section or a broken prompt
// template, never for a backend failure.
//
// Usage:
//
//	res, err := content.New(backend, content.DefaultPolicy(), content.WithLogger(logger))
//	out, err := res.Resolve(ctx, wizard.SectionScope, rec)
//	out, err = res.Regenerate(ctx, wizard.SectionScope, rec)
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/diagnostico/generation"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/wizard"
)

// ErrInvalidSection is returned for a section id outside the five known ones.
var ErrInvalidSection = errors.New("content: invalid section")

// Result is one resolved section.
type Result struct {
	Section wizard.Section `json:"section"`
	HTML    string         `json:"html"`
	// Generated is true when HTML came from the backend.
	Generated bool `json:"generated"`
	// Fallback names the failure kind when Generated is false.
	Fallback string `json:"fallback,omitempty"`
	Variant  string `json:"variant"`
}

// Resolver turns (section, intake record) into section HTML.
type Resolver struct {
	backend   generation.Backend
	policy    Policy
	prompts   prompts
	fallbacks fallbacks
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for generation failures.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// WithClock overrides time.Now for the dates placed in prompts.
func WithClock(now func() time.Time) Option { return func(r *Resolver) { r.now = now } }

// New builds a Resolver. A nil backend is treated as generation.Offline.
func New(backend generation.Backend, policy Policy, opts ...Option) (*Resolver, error) {
	if backend == nil {
		backend = generation.Offline{}
	}
	p, err := loadPrompts()
	if err != nil {
		return nil, err
	}
	fb, err := loadFallbacks()
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		backend:   backend,
		policy:    policy.clone(),
		prompts:   p,
		fallbacks: fb,
		logger:    slog.Default(),
		now:       time.Now,
	}
	if r.policy.Sanitize {
		r.sanitizer = newSanitizer()
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Resolve produces the section content shown when a step is rendered.
func (r *Resolver) Resolve(ctx context.Context, sec wizard.Section, rec intake.Record) (Result, error) {
	return r.resolve(ctx, sec, Initial, rec)
}

// Regenerate produces fresh content for sec from its alternate prompt.
func (r *Resolver) Regenerate(ctx context.Context, sec wizard.Section, rec intake.Record) (Result, error) {
	return r.resolve(ctx, sec, Alternate, rec)
}

// Fallback returns the static fragment for sec and kind.
func (r *Resolver) Fallback(sec wizard.Section, kind generation.Kind) (string, error) {
	if _, ok := wizard.ParseSection(string(sec)); !ok {
		return "", ErrInvalidSection
	}
	return r.fallbacks.get(sec, kind), nil
}

// GenerationEnabled reports whether a real backend is configured.
func (r *Resolver) GenerationEnabled() bool {
	return generation.Available(r.backend)
}

func (r *Resolver) resolve(ctx context.Context, sec wizard.Section, v Variant, rec intake.Record) (Result, error) {
	if _, ok := wizard.ParseSection(string(sec)); !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidSection, sec)
	}
	prompt, err := r.prompts.build(sec, v, rec, r.now())
	if err != nil {
		return Result{}, err
	}

	text, err := r.generate(ctx, sec, prompt)
	if err != nil {
		kind := generation.Classify(err)
		r.logger.WarnContext(ctx, "generation failed, serving fallback",
			"section", string(sec),
			"variant", v.String(),
			"kind", kind.String(),
			"error", err,
		)
		return Result{
			Section:  sec,
			HTML:     r.fallbacks.get(sec, kind),
			Fallback: kind.String(),
			Variant:  v.String(),
		}, nil
	}
	return Result{Section: sec, HTML: text, Generated: true, Variant: v.String()}, nil
}

// generate calls the backend once and applies cleaning, the length floor and
// optional sanitization.
func (r *Resolver) generate(ctx context.Context, sec wizard.Section, prompt string) (string, error) {
	raw, err := r.backend.Generate(ctx, prompt, r.policy.Temperature(sec))
	if err != nil {
		return "", err
	}
	text := Clean(raw)
	if r.sanitizer != nil {
		text = strings.TrimSpace(r.sanitizer.Sanitize(text))
	}
	if len([]rune(text)) < r.policy.minLength() {
		return "", generation.NewTransientError(fmt.Errorf("answer too short (%d chars)", len([]rune(text))))
	}
	return text, nil
}
