// Package main is the entry point for the portfolio server.
//
// main reads configuration, builds the logger and the content store, and
// starts the server. Everything else lives in internal/.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/server"
)

func main() {
	// A .env file is optional; real environment variables win.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("could not read .env", slog.String("error", envErr.Error()))
	}
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set: admin login is disabled")
	}

	// Settings that may be rotated without a restart (admin password,
	// GitHub token) are re-read from the environment on each use.
	store, err := server.OpenStore(cfg, config.Load, logger)
	if err != nil {
		logger.Error("failed to open content store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, config.Load, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
