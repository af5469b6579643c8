// Package config loads the service configuration: defaults, then an optional
// YAML file, then a .env file, then environment variables. Secrets (the
// generation API key and the cookie signing key) come from the environment
// only and are never read from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/generation"
	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/session"
	"github.com/hazyhaar/diagnostico/wizard"
)

// Config holds the full service configuration.
type Config struct {
	Listen   string `yaml:"listen" env:"LISTEN"`
	DBPath   string `yaml:"db_path" env:"DB_PATH"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE"`

	Session    SessionConfig    `yaml:"session"`
	Generation GenerationConfig `yaml:"generation"`
	Intake     IntakeConfig     `yaml:"intake"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	MCP        MCPConfig        `yaml:"mcp"`
}

// SessionConfig configures the session store and cookie.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	SecureCookie    bool          `yaml:"secure_cookie" env:"SESSION_SECURE_COOKIE"`
	Secret          string        `yaml:"-" env:"SESSION_SECRET"`
}

// GenerationConfig configures the generation backend and resolver policy.
type GenerationConfig struct {
	APIKey       string             `yaml:"-" env:"GEMINI_API_KEY"`
	Model        string             `yaml:"model" env:"GEMINI_MODEL"`
	Timeout      time.Duration      `yaml:"timeout" env:"GENERATION_TIMEOUT"`
	BaseURL      string             `yaml:"base_url" env:"GEMINI_BASE_URL"`
	MinLength    int                `yaml:"min_length"`
	Temperatures map[string]float64 `yaml:"temperatures"`
	Sanitize     bool               `yaml:"sanitize" env:"GENERATION_SANITIZE"`
}

// IntakeConfig selects the intake validation policy.
type IntakeConfig struct {
	RequireCompanySize bool `yaml:"require_company_size" env:"INTAKE_REQUIRE_COMPANY_SIZE"`
}

// RateLimitConfig limits POST /api/regenerate per client IP.
type RateLimitConfig struct {
	RegeneratePerMinute int `yaml:"regenerate_per_minute" env:"RATELIMIT_REGENERATE_PER_MINUTE"`

	// TrustProxy keys the limit on X-Forwarded-For. Leave it off unless a
	// reverse proxy sets that header; clients can forge it otherwise.
	TrustProxy bool `yaml:"trust_proxy" env:"RATELIMIT_TRUST_PROXY"`
}

// MCPConfig exposes the resolver as MCP tools over HTTP at /mcp.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED"`
}

// DefaultConfig returns sane defaults. Generation is offline until
// GEMINI_API_KEY is set.
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":5000",
		DBPath:   "data/diagnostico.db",
		LogLevel: "info",
		Session: SessionConfig{
			TTL:             session.DefaultTTL,
			JanitorInterval: 10 * time.Minute,
		},
		Generation: GenerationConfig{
			Model:     generation.DefaultModel,
			Timeout:   generation.DefaultTimeout,
			MinLength: content.DefaultMinLength,
			Temperatures: map[string]float64{
				string(wizard.SectionBrief): content.TemperatureBrief,
				string(wizard.SectionROI):   content.TemperatureROI,
				string(wizard.SectionMap):   content.TemperatureMap,
			},
		},
		RateLimit: RateLimitConfig{RegeneratePerMinute: 20},
	}
}

// Load builds the configuration. path is an optional YAML file; envFile is an
// optional dotenv file whose variables never override the real environment.
// Missing envFile is not an error; a missing YAML path is.
func Load(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Generation.APIKey = strings.TrimSpace(cfg.Generation.APIKey)
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}
	if c.Session.JanitorInterval <= 0 {
		return fmt.Errorf("session.janitor_interval must be > 0")
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be > 0")
	}
	if c.Generation.MinLength < 1 {
		return fmt.Errorf("generation.min_length must be >= 1")
	}
	for name, t := range c.Generation.Temperatures {
		if _, ok := wizard.ParseSection(name); !ok {
			return fmt.Errorf("generation.temperatures: unknown section %q", name)
		}
		if t < 0 || t > 2 {
			return fmt.Errorf("generation.temperatures.%s: %v out of range [0,2]", name, t)
		}
	}
	if c.RateLimit.RegeneratePerMinute < 0 {
		return fmt.Errorf("ratelimit.regenerate_per_minute must be >= 0")
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level: unsupported value %q (use debug, info, warn or error)", s)
}

// SessionSecret returns the cookie signing key. A missing or short secret
// yields a random key and ok=false; sessions then end with the process.
func (c *Config) SessionSecret() (secret []byte, ok bool) {
	if len(c.Session.Secret) >= session.MinSecretLen {
		return []byte(c.Session.Secret), true
	}
	return session.RandomSecret(), false
}

// GenerationBackend returns the backend settings.
func (c *Config) GenerationBackend() generation.Config {
	return generation.Config{
		APIKey:  c.Generation.APIKey,
		Model:   c.Generation.Model,
		Timeout: c.Generation.Timeout,
		BaseURL: c.Generation.BaseURL,
	}
}

// ContentPolicy returns the resolver policy.
func (c *Config) ContentPolicy() content.Policy {
	p := content.DefaultPolicy()
	for name, t := range c.Generation.Temperatures {
		if sec, ok := wizard.ParseSection(name); ok {
			p.Temperatures[sec] = t
		}
	}
	p.MinLength = c.Generation.MinLength
	p.Sanitize = c.Generation.Sanitize
	return p
}

// IntakeOptions returns the intake validation policy.
func (c *Config) IntakeOptions() intake.Options {
	return intake.Options{RequireCompanySize: c.Intake.RequireCompanySize}
}
