// Package config loads the service configuration from environment variables.
//
// The environment is re-read on every call to Load. Handlers resolve their
// settings through a Source at request time, so a missing credential turns
// into a ConfigError for that request instead of a startup crash.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sakif/portfolio/internal/apperror"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendGitHub = "github"
	BackendSQLite = "sqlite"
)

// DefaultSessionTTL is the admin session lifetime when SESSION_TTL is unset.
const DefaultSessionTTL = 8 * time.Hour

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	SiteURL  string `env:"SITE_URL" envDefault:"http://localhost:8080"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"github"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"data/content.db"`

	GitHub GitHub

	AdminPassword string        `env:"ADMIN_PASSWORD"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"8h"`
}

// GitHub identifies the repository holding the content files.
// The GITHUB_CONTENT_* variables are accepted as fallbacks.
type GitHub struct {
	Owner   string `env:"GITHUB_OWNER"`
	Repo    string `env:"GITHUB_REPO"`
	Branch  string `env:"GITHUB_BRANCH"`
	Token   string `env:"GITHUB_TOKEN"`
	APIBase string `env:"GITHUB_API_BASE" envDefault:"https://api.github.com"`

	ContentOwner  string `env:"GITHUB_CONTENT_OWNER"`
	ContentRepo   string `env:"GITHUB_CONTENT_REPO"`
	ContentBranch string `env:"GITHUB_CONTENT_BRANCH"`
	ContentToken  string `env:"GITHUB_CONTENT_TOKEN"`
}

// Source yields the configuration in effect for one operation.
type Source func() (*Config, error)

// Static returns a Source that always yields cfg. Used by tests and by
// callers that already resolved the configuration.
func Static(cfg *Config) Source {
	return func() (*Config, error) { return cfg, nil }
}

// SessionLifetime is SessionTTL, or DefaultSessionTTL when it is not positive.
func (c Config) SessionLifetime() time.Duration {
	if c.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return c.SessionTTL
}

// IsProduction reports whether cookies should be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate returns a ConfigError naming every missing connection parameter.
func (g GitHub) Validate() error {
	var missing []string
	if g.Owner == "" {
		missing = append(missing, "GITHUB_OWNER")
	}
	if g.Repo == "" {
		missing = append(missing, "GITHUB_REPO")
	}
	if g.Token == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if len(missing) > 0 {
		return apperror.MissingConfig(missing...)
	}
	return nil
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	g := &cfg.GitHub
	g.Owner = firstNonEmpty(g.Owner, g.ContentOwner)
	g.Repo = firstNonEmpty(g.Repo, g.ContentRepo)
	g.Branch = firstNonEmpty(g.Branch, g.ContentBranch, "main")
	g.Token = firstNonEmpty(g.Token, g.ContentToken)
	g.APIBase = strings.TrimRight(g.APIBase, "/")

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case BackendGitHub, BackendSQLite:
	default:
		return nil, fmt.Errorf("parsing config: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
