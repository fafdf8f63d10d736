package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, BackendGitHub, cfg.StoreBackend)
	assert.Equal(t, "main", cfg.GitHub.Branch)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBase)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFrom_ContentFallbacks(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"GITHUB_CONTENT_OWNER":  "jane",
		"GITHUB_CONTENT_REPO":   "site-content",
		"GITHUB_CONTENT_BRANCH": "content",
		"GITHUB_CONTENT_TOKEN":  "ghp_fallback",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane", cfg.GitHub.Owner)
	assert.Equal(t, "site-content", cfg.GitHub.Repo)
	assert.Equal(t, "content", cfg.GitHub.Branch)
	assert.Equal(t, "ghp_fallback", cfg.GitHub.Token)
}

func TestLoadFrom_PrimaryWinsOverFallback(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"GITHUB_OWNER":         "primary",
		"GITHUB_CONTENT_OWNER": "fallback",
		"GITHUB_API_BASE":      "http://127.0.0.1:9999/",
	})
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.GitHub.Owner)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.GitHub.APIBase, "trailing slash is trimmed")
}

func TestLoadFrom_UnknownBackend(t *testing.T) {
	_, err := LoadFrom(map[string]string{"STORE_BACKEND": "s3"})
	assert.Error(t, err)
}

func TestLoadFrom_InvalidPort(t *testing.T) {
	_, err := LoadFrom(map[string]string{"PORT": "eighty"})
	assert.Error(t, err)
}

func TestGitHubValidate(t *testing.T) {
	tests := []struct {
		name      string
		gh        GitHub
		wantErr   bool
		wantField string
	}{
		{
			name: "complete",
			gh:   GitHub{Owner: "o", Repo: "r", Token: "t"},
		},
		{
			name:      "missing token",
			gh:        GitHub{Owner: "o", Repo: "r"},
			wantErr:   true,
			wantField: "GITHUB_TOKEN",
		},
		{
			name:      "missing everything",
			gh:        GitHub{},
			wantErr:   true,
			wantField: "GITHUB_OWNER,GITHUB_REPO,GITHUB_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gh.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrConfig))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{LogLevel: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "nonsense"}.SlogLevel())
}

func TestStatic(t *testing.T) {
	want := &Config{Port: 1234}
	got, err := Static(want)()
	require.NoError(t, err)
	assert.Same(t, want, got)
}
