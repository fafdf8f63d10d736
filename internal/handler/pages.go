// Package handler contains the HTTP handlers for the public site, the
// asset proxies and the admin API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, headers)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business logic. Content rules live in internal/service,
// storage in internal/repository.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/render"
	"github.com/sakif/portfolio/internal/service"
)

// PagesHandler renders the public HTML pages from the content documents.
// Every request reads fresh content, so an admin save is visible on the
// next page load.
type PagesHandler struct {
	content  *service.ContentService
	sessions auth.SessionValidator
	renderer *render.Renderer
	siteURL  string
	logger   *slog.Logger
}

// NewPagesHandler creates a PagesHandler. sessions may be nil, in which
// case the admin link is never shown.
func NewPagesHandler(
	content *service.ContentService,
	sessions auth.SessionValidator,
	renderer *render.Renderer,
	siteURL string,
	logger *slog.Logger,
) *PagesHandler {
	return &PagesHandler{
		content:  content,
		sessions: sessions,
		renderer: renderer,
		siteURL:  strings.TrimSuffix(siteURL, "/"),
		logger:   logger,
	}
}

type homePage struct {
	Home     *model.Home
	Featured []model.Project
}

type aboutPage struct {
	*model.About
	AvatarURL string
}

type projectsPage struct {
	Technologies []string
	Technology   string
	Projects     []model.Project
}

type technologiesPage struct {
	Technologies []technologyGroup
}

type technologyGroup struct {
	Name     string
	Projects []model.Project
}

type resumePage struct {
	Available   bool
	ViewURL     string
	DownloadURL string
}

type errorPage struct {
	Heading string
	Message string
}

// HandleHome renders the landing page.
//
// HTTP: GET /
func (h *PagesHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO, model.KeyHome, model.KeyProjects)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := homePage{
		Home:     b.Home,
		Featured: b.Projects.Featured(b.Home.FeaturedProjectSlugs),
	}
	h.render(w, r, "pages/home", h.page(r, b, "", b.Home.Hero.Subtitle, data))
}

// HandleAbout renders the profile, timeline and skills.
//
// HTTP: GET /about
func (h *PagesHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO, model.KeyAbout)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	title := b.About.Meta.Title
	if title == "" {
		title = "About"
	}
	data := aboutPage{About: b.About, AvatarURL: avatarURL(b.About.Profile.Avatar)}
	h.render(w, r, "pages/about", h.page(r, b, title, b.About.Meta.Description, data))
}

// HandleProjects lists projects, optionally filtered by ?tech=. A
// technology outside allowedTechnologies is ignored and every project is
// listed.
//
// HTTP: GET /projects?tech=Go
func (h *PagesHandler) HandleProjects(w http.ResponseWriter, r *http.Request) {
	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO, model.KeyProjects)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	tech := strings.TrimSpace(r.URL.Query().Get("tech"))
	if !slices.Contains(b.Projects.AllowedTechnologies, tech) {
		tech = ""
	}

	data := projectsPage{
		Technologies: b.Projects.AllowedTechnologies,
		Technology:   tech,
		Projects:     b.Projects.ByTechnology(tech),
	}
	h.render(w, r, "pages/projects", h.page(r, b, "Projects", "", data))
}

// HandleProject renders one project. With duplicate slugs the first
// project wins.
//
// HTTP: GET /projects/{slug}
func (h *PagesHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO, model.KeyProjects)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	project, ok := b.Projects.BySlug(slug)
	if !ok {
		h.renderError(w, r, apperror.NotFound("project", slug))
		return
	}
	h.render(w, r, "pages/project", h.page(r, b, project.Title, project.Description, project))
}

// HandleTechnologies groups the projects under each allowed technology,
// in allowedTechnologies order.
//
// HTTP: GET /technologies
func (h *PagesHandler) HandleTechnologies(w http.ResponseWriter, r *http.Request) {
	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO, model.KeyProjects)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	groups := make([]technologyGroup, 0, len(b.Projects.AllowedTechnologies))
	for _, tech := range b.Projects.AllowedTechnologies {
		groups = append(groups, technologyGroup{Name: tech, Projects: b.Projects.ByTechnology(tech)})
	}
	h.render(w, r, "pages/technologies", h.page(r, b, "Technologies", "", technologiesPage{Technologies: groups}))
}

// HandleResumePage embeds the resume PDF with a download link. A missing
// resume.json or an empty resumeUrl renders the page without the viewer.
//
// HTTP: GET /resume
func (h *PagesHandler) HandleResumePage(w http.ResponseWriter, r *http.Request) {
	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	resume, err := h.content.Resume(r.Context())
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		h.renderError(w, r, err)
		return
	}

	data := resumePage{ViewURL: "/resume/view", DownloadURL: "/resume/download"}
	data.Available = resume != nil && strings.TrimSpace(resume.ResumeURL) != ""
	h.render(w, r, "pages/resume", h.page(r, b, "Resume", "", data))
}

// HandleContact renders the contact page.
//
// HTTP: GET /contact
func (h *PagesHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	b, err := h.content.LoadBundle(r.Context(), model.KeySite, model.KeySEO)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/contact", h.page(r, b, "Contact", "", nil))
}

// HandleNotFound renders the 404 page for unknown routes.
func (h *PagesHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, apperror.NotFound("page", r.URL.Path))
}

// page fills the head fields from seo.json.
func (h *PagesHandler) page(r *http.Request, b *service.Bundle, title, description string, data any) render.TemplateData {
	td := render.TemplateData{
		Site:    b.Site,
		SEO:     b.SEO,
		Path:    r.URL.Path,
		IsAdmin: h.isAdmin(r),
		Data:    data,
	}
	if b.SEO != nil {
		td.Title = b.SEO.Title(title)
		td.Robots = b.SEO.RobotsMeta()
		if description == "" {
			description = b.SEO.Description
		}
	} else {
		td.Title = title
	}
	td.Description = description
	if h.siteURL != "" {
		td.Canonical = h.siteURL + r.URL.Path
	}
	return td
}

func (h *PagesHandler) isAdmin(r *http.Request) bool {
	return h.sessions != nil && auth.IsAuthenticated(r, h.sessions)
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, name string, data render.TemplateData) {
	if err := h.renderer.Render(w, http.StatusOK, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "rendering page",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
	}
}

// renderError shows the error page with the status classify picks. Only
// not-found errors show their message; everything else is generic.
func (h *PagesHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, errorType, _ := classify(err)

	page := errorPage{Heading: "Something went wrong", Message: "The page could not be loaded. Please try again later."}
	if errors.Is(err, apperror.ErrNotFound) {
		page = errorPage{Heading: "Not found", Message: "The page you were looking for does not exist."}
	} else {
		h.logger.ErrorContext(r.Context(), "loading page content",
			slog.String("path", r.URL.Path),
			slog.String("error_type", errorType),
			slog.String("error", err.Error()),
		)
	}

	data := render.TemplateData{
		Title:  page.Heading,
		Robots: "noindex, nofollow",
		Path:   r.URL.Path,
		Data:   page,
	}
	if renderErr := h.renderer.Render(w, status, "pages/error", data); renderErr != nil {
		http.Error(w, page.Message, status)
	}
}

// avatarURL maps the profile avatar to a URL the browser can load. Images
// kept in the content repository go through the avatar proxy, because the
// repository may be private.
func avatarURL(avatar string) string {
	avatar = strings.TrimSpace(avatar)
	switch {
	case avatar == "":
		return "/api/asset/profile"
	case strings.HasPrefix(avatar, "https://"+rawContentHost+"/"):
		return "/api/avatar?url=" + url.QueryEscape(avatar)
	case model.IsPublicImage(strings.TrimPrefix(avatar, "/")):
		return "/api/avatar?path=" + url.QueryEscape(strings.TrimPrefix(avatar, "/"))
	default:
		return avatar
	}
}
