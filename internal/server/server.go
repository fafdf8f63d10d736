// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it connects the content store,
// services, handlers and middleware, and owns startup and graceful
// shutdown. main.go stays minimal; tests build a Server around an
// in-memory store.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/middleware"
	"github.com/sakif/portfolio/internal/render"
	"github.com/sakif/portfolio/internal/service"
	"github.com/sakif/portfolio/web"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store. Start closes it after the HTTP server has
// drained, so a SQLite store flushes its WAL on the way out.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  Store
}

// New wires the dependency chain:
//
//	store → ContentService → content/asset/pages/SEO handlers
//	src   → AuthService    → auth handler and the admin gates
//
// cfg is the configuration resolved at startup (port, site URL, backend).
// src is consulted per request for the values that may change while the
// process runs (admin password, GitHub token).
func New(cfg *config.Config, src config.Source, store Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(src); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /, /about, /projects, /projects/{slug}, /contact   → HTML pages
//	GET  /technologies, /resume                              → HTML pages
//	GET  /resume/view, /resume/download                      → resume PDF
//	GET  /api/asset/profile, /api/asset/resume, /api/avatar  → asset proxies
//	GET  /robots.txt, /sitemap.xml, /healthz
//	GET  /admin/login                                        → login form
//	GET  /admin, /admin/*                                    → dashboard (session, else 303 to login)
//	POST /api/admin/login, /api/admin/logout
//	GET  /api/admin/content?key=                             → document (session, else 401)
//	POST /api/admin/content, /api/admin/asset                → commit (session, else 401)
//
// MIDDLEWARE ORDER:
// RequestID → RealIP → Logger → Recoverer run on every request. The admin
// API adds NoStore and the cross-origin check; the gated routes add the
// session check last.
func (s *Server) setupRoutes(src config.Source) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.GetHead)

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("opening templates: %w", err)
	}
	renderer, err := render.New(templates)
	if err != nil {
		return err
	}

	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return fmt.Errorf("generating csrf key: %w", err)
	}
	csrf := middleware.CSRF(middleware.DefaultCSRFConfig(csrfKey, s.config.SiteURL, s.config.Port, !s.config.IsProduction()))

	contentService := service.NewContentService(s.store, s.logger)
	authService := service.NewAuthService(src, auth.NewPasswordService(), s.logger)

	pages := handler.NewPagesHandler(contentService, authService, renderer, s.config.SiteURL, s.logger)
	assets := handler.NewAssetHandler(contentService, s.logger)
	seo := handler.NewSEOHandler(contentService, s.config.SiteURL, s.logger)
	content := handler.NewContentHandler(contentService, s.logger)
	authHandler := handler.NewAuthHandler(authService, renderer, s.logger)
	admin := handler.NewAdminHandler(renderer, s.logger)

	// === Public site ===
	s.router.Get("/", pages.HandleHome)
	s.router.Get("/about", pages.HandleAbout)
	s.router.Get("/projects", pages.HandleProjects)
	s.router.Get("/projects/{slug}", pages.HandleProject)
	s.router.Get("/technologies", pages.HandleTechnologies)
	s.router.Get("/contact", pages.HandleContact)
	s.router.Get("/resume", pages.HandleResumePage)
	s.router.Get("/resume/view", assets.HandleResumeView)
	s.router.Get("/resume/download", assets.HandleResumeDownload)
	s.router.Get("/robots.txt", seo.HandleRobots)
	s.router.Get("/sitemap.xml", seo.HandleSitemap)
	s.router.Get("/healthz", handler.HandleHealth)
	s.router.NotFound(pages.HandleNotFound)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/asset/profile", assets.HandleProfile)
		r.Get("/asset/resume", assets.HandleResume)
		r.Get("/avatar", assets.HandleAvatar)

		// === Admin API ===
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(csrf)

			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdminAPI(authService))
				r.Get("/content", content.HandleGet)
				r.Post("/content", content.HandleSave)
				r.Post("/asset", assets.HandleUpload)
			})
		})
	})

	// === Admin pages ===
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Get(auth.LoginPath, authHandler.HandleLoginPage)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(authService))
			r.Get("/admin", admin.HandleDashboard)
			r.Get("/admin/*", admin.HandleDashboard)
		})
	})

	return nil
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a listen
// error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the content store
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing content store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("store", s.config.StoreBackend),
			slog.String("site_url", s.config.SiteURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
