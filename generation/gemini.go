package generation

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Gemini is the Backend backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    Config
	model  string
}

// NewGemini builds a Gemini client. The API key is required.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg, model: cfg.Model}, nil
}

// Generate sends prompt as a single user turn and returns the response text.
// Errors come back wrapped as *QuotaError, *TransientError or ErrNotConfigured.
func (g *Gemini) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	})
	if err != nil {
		return "", wrap(fmt.Errorf("gemini: generate: %w", err))
	}
	text := resp.Text()
	if text == "" {
		return "", NewTransientError(errors.New("gemini: empty response"))
	}
	return text, nil
}
