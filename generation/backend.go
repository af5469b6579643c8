// Package generation talks to the text-generation provider that writes the
// diagnostic sections.
//
// A Backend turns a prompt into text. Its errors are classified into three
// kinds (not configured, quota, transient) so the content layer can pick a
// fallback without knowing which provider is behind the interface. Without an
// API key New returns Offline, which fails every call with ErrNotConfigured.
package generation

import (
	"context"
	"log/slog"
	"time"
)

// Backend generates text for a prompt at the given sampling temperature.
type Backend interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

// Generate calls f.
func (f BackendFunc) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	return f(ctx, prompt, temperature)
}

// Offline is the backend used when no credentials are configured.
type Offline struct{}

// Generate always fails with ErrNotConfigured.
func (Offline) Generate(context.Context, string, float64) (string, error) {
	return "", ErrNotConfigured
}

// Config holds provider settings.
type Config struct {
	APIKey  string        `yaml:"-"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`

	// BaseURL overrides the provider endpoint (a regional gateway or a
	// recording proxy). Empty uses the SDK default.
	BaseURL string `yaml:"base_url"`
}

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 8 * time.Second

// New returns the backend selected by cfg: Gemini when an API key is present,
// Offline otherwise. A client that cannot be built degrades to Offline with a
// warning; the service keeps serving fallback content.
func New(ctx context.Context, cfg Config, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		logger.Info("generation backend offline", "reason", "no api key")
		return Offline{}
	}
	g, err := NewGemini(ctx, cfg)
	if err != nil {
		logger.Warn("generation backend offline", "error", err)
		return Offline{}
	}
	logger.Info("generation backend ready", "provider", "gemini", "model", g.model)
	return g
}

// Available reports whether b can reach a provider at all.
func Available(b Backend) bool {
	switch b.(type) {
	case nil, Offline, *Offline:
		return false
	}
	return true
}
