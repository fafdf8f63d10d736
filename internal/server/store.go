package server

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/repository/github"
	"github.com/sakif/portfolio/internal/repository/sqlite"
)

// Store is a file store plus whatever must be released on shutdown.
type Store interface {
	repository.FileStore
	Close() error
}

type githubStore struct {
	*github.Client
}

func (githubStore) Close() error { return nil }

// OpenStore builds the file store named by cfg.StoreBackend.
//
// The GitHub backend resolves its connection settings through src on every
// call, so a missing token is reported by the first read rather than here;
// it is only logged at startup.
func OpenStore(cfg *config.Config, src config.Source, logger *slog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendGitHub, "":
		if err := cfg.GitHub.Validate(); err != nil {
			logger.Warn("GitHub content store is not fully configured", slog.String("error", err.Error()))
		}
		return githubStore{github.New(src, logger)}, nil

	case config.BackendSQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, &apperror.AppError{
			Err:     apperror.ErrConfig,
			Field:   "STORE_BACKEND",
			Message: fmt.Sprintf("unknown store backend %q (want %s or %s)", cfg.StoreBackend, config.BackendGitHub, config.BackendSQLite),
		}
	}
}
