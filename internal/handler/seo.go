package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/seo"
	"github.com/sakif/portfolio/internal/service"
)

// SEOHandler serves robots.txt and sitemap.xml.
type SEOHandler struct {
	content *service.ContentService
	siteURL string
	logger  *slog.Logger
}

// NewSEOHandler creates an SEOHandler. siteURL is the public origin used
// for absolute sitemap locations.
func NewSEOHandler(content *service.ContentService, siteURL string, logger *slog.Logger) *SEOHandler {
	return &SEOHandler{
		content: content,
		siteURL: strings.TrimSuffix(siteURL, "/"),
		logger:  logger,
	}
}

// HandleRobots serves robots.txt. A site whose seo.json sets
// robots.index to false disallows everything. A missing seo.json is
// treated as indexable.
//
// HTTP: GET /robots.txt
func (h *SEOHandler) HandleRobots(w http.ResponseWriter, r *http.Request) {
	cfg := seo.RobotsConfig{SiteURL: h.siteURL}

	doc, err := h.content.SEO(r.Context())
	switch {
	case err == nil:
		cfg.DisallowAll = !doc.Robots.Index
	case errors.Is(err, apperror.ErrNotFound):
	default:
		writePlainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(seo.BuildRobots(cfg)))
}

// HandleSitemap serves sitemap.xml with the fixed pages and one entry per
// project.
//
// HTTP: GET /sitemap.xml
func (h *SEOHandler) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	siteURL := h.siteURL
	if siteURL == "" {
		siteURL = requestOrigin(r)
	}

	projects, err := h.content.Projects(r.Context())
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		writePlainError(w, err)
		return
	}

	var out []byte
	if projects != nil {
		out, err = seo.GenerateSitemap(siteURL, projects.Projects)
	} else {
		out, err = seo.GenerateSitemap(siteURL, nil)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "building sitemap", slog.String("error", err.Error()))
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// HandleHealth reports that the process is up. It does not touch the
// content store.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requestOrigin rebuilds scheme://host for the current request.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
