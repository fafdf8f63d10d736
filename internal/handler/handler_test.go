package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/render"
	"github.com/sakif/portfolio/internal/repository/sqlite"
	"github.com/sakif/portfolio/internal/service"
	"github.com/sakif/portfolio/web"
)

const testPassword = "correct horse battery staple"

const (
	siteJSON   = `{"name":"Jane Doe","email":"jane@example.com","location":"Montreal","socials":{"github":"https://github.com/jane"}}`
	seoJSON    = `{"siteName":"Jane Doe","defaultTitle":"Jane Doe","titleTemplate":"%s | Jane Doe","description":"Portfolio of Jane Doe","openGraph":{"type":"website","url":"https://jane.dev"},"twitter":{"card":"summary"},"robots":{"index":true,"follow":true}}`
	homeJSON   = `{"homeHero":{"title":"Building reliable systems","subtitle":"Backend engineer","description":"I like boring software.","primaryCta":{"label":"Projects","href":"/projects"},"secondaryCta":{"label":"Contact","href":"/contact"}},"homeHighlights":[],"featuredProjectSlugs":["pathfinder","missing"],"testimonials":[]}`
	aboutJSON  = `{"aboutMeta":{"title":"About Jane","description":"Background"},"aboutProfile":{"name":"Jane Doe","headline":"Backend engineer","location":"Montreal","email":"jane@example.com","summary":"Ten years of services."},"aboutProof":[],"aboutTimeline":[],"aboutSkills":[{"title":"Languages","items":["Go","Rust"]}]}`
	resumeJSON = `{"resumeUrl":"/resume/view"}`
)

const projectsJSON = `{"allowedTechnologies":["Go","Rust"],"projects":[` +
	`{"slug":"pathfinder","title":"Pathfinder","description":"Route planner","technology":"Go","problem":"Slow routing","features":["A*"],"challenges":[],"learnings":[]},` +
	`{"slug":"ledger","title":"Ledger","description":"Double-entry books","technology":"Rust","problem":"","features":[],"challenges":[],"learnings":[]}]}`

// testEnv wires the real services over an in-memory SQLite file store.
type testEnv struct {
	store    *sqlite.DB
	content  *service.ContentService
	auth     *service.AuthService
	cfg      *config.Config
	renderer *render.Renderer
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	templates, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := render.New(templates)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Env:           "development",
		SiteURL:       "https://jane.dev",
		AdminPassword: testPassword,
		SessionTTL:    time.Hour,
	}

	return &testEnv{
		store:    db,
		content:  service.NewContentService(db, logger),
		auth:     service.NewAuthService(config.Static(cfg), auth.NewPasswordServiceForTest(4), logger),
		cfg:      cfg,
		renderer: renderer,
		logger:   logger,
	}
}

func (e *testEnv) seed(t *testing.T, path, content string) string {
	t.Helper()
	sha, err := e.store.Write(context.Background(), path, []byte(content), "seed", "")
	require.NoError(t, err)
	return sha
}

func (e *testEnv) seedSite(t *testing.T) {
	t.Helper()
	e.seed(t, "data/content/site.json", siteJSON)
	e.seed(t, "data/content/seo.json", seoJSON)
	e.seed(t, "data/content/home.json", homeJSON)
	e.seed(t, "data/content/about.json", aboutJSON)
	e.seed(t, "data/content/projects.json", projectsJSON)
}

func (e *testEnv) contentHandler() *handler.ContentHandler {
	return handler.NewContentHandler(e.content, e.logger)
}

func (e *testEnv) assetHandler() *handler.AssetHandler {
	return handler.NewAssetHandler(e.content, e.logger)
}

func (e *testEnv) authHandler() *handler.AuthHandler {
	return handler.NewAuthHandler(e.auth, e.renderer, e.logger)
}

func (e *testEnv) adminHandler() *handler.AdminHandler {
	return handler.NewAdminHandler(e.renderer, e.logger)
}

func (e *testEnv) pagesHandler() *handler.PagesHandler {
	return handler.NewPagesHandler(e.content, e.auth, e.renderer, e.cfg.SiteURL, e.logger)
}

// errorBody decodes the JSON error envelope.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
