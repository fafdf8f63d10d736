package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/render"
)

// AdminHandler renders the admin dashboard. The dashboard itself is static;
// it loads and saves documents through the content API.
type AdminHandler struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(renderer *render.Renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{renderer: renderer, logger: logger}
}

type dashboardPage struct {
	Subject string
	Keys    []model.Key
	Assets  []string
}

// HandleDashboard renders the editor. It relies on auth.RequireAdmin having
// stored the session subject; without one it sends the caller to log in.
//
// HTTP: GET /admin, GET /admin/* (session required)
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	subject, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}

	data := render.TemplateData{
		Title:   "Admin",
		Robots:  "noindex, nofollow",
		Path:    r.URL.Path,
		IsAdmin: true,
		Data:    dashboardPage{Subject: subject, Keys: model.Keys, Assets: model.WritableAssets},
	}
	if err := h.renderer.Render(w, http.StatusOK, "admin/dashboard", data); err != nil {
		h.logger.ErrorContext(r.Context(), "rendering dashboard", slog.String("error", err.Error()))
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
	}
}
