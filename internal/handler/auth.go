package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/render"
	"github.com/sakif/portfolio/internal/service"
)

// AuthHandler manages the admin login flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLoginPage → render the password form (or skip it when already logged in)
//   - HandleLogin     → check the password and set the session cookie
//   - HandleLogout    → clear the session cookie
//
// Login and logout accept both a JSON body (admin UI fetch calls) and a
// plain form post (the login page works without JavaScript).
type AuthHandler struct {
	auth     *service.AuthService
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, renderer *render.Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		renderer: renderer,
		logger:   logger,
	}
}

// LoginRequest is the JSON login body.
type LoginRequest struct {
	Password string `json:"password"`
	Next     string `json:"next"`
}

// LoginResponse is returned by a successful JSON login.
type LoginResponse struct {
	OK   bool   `json:"ok"`
	Next string `json:"next"`
}

// loginPage is the page data for admin/login.
type loginPage struct {
	Error string
	Next  string
}

// HandleLoginPage renders the login form.
//
// HTTP: GET /admin/login?next=/admin
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := auth.SafeNext(r.URL.Query().Get("next"))
	if auth.IsAuthenticated(r, h.auth) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, http.StatusOK, next, "")
}

// HandleLogin checks the submitted password.
//
// HTTP: POST /api/admin/login
//
//	JSON {"password":"...","next":"/admin"} → 200 {"ok":true,"next":"/admin"} or error envelope
//	form password=...&next=/admin           → 303 to next, or the login page again with 401
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	jsonBody := isJSON(r)

	var req LoginRequest
	if jsonBody {
		r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperror.ValidationFailed("body", "invalid JSON in request body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderLogin(w, http.StatusBadRequest, auth.DefaultNext, "Invalid form submission.")
			return
		}
		req.Password = r.PostFormValue("password")
		req.Next = r.PostFormValue("next")
	}
	next := auth.SafeNext(req.Next)

	session, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		if jsonBody {
			writeError(w, err)
			return
		}
		status, _, message := classify(err)
		if errors.Is(err, apperror.ErrUnauthorized) {
			message = "Incorrect password."
		}
		h.renderLogin(w, status, next, message)
		return
	}

	auth.SetSessionCookie(w, session.Token, session.TTL, h.auth.SecureCookies())

	if jsonBody {
		writeJSON(w, http.StatusOK, LoginResponse{OK: true, Next: next})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleLogout clears the session cookie. Sessions are stateless, so this
// only forgets the marker on this browser.
//
// HTTP: POST /api/admin/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.auth.SecureCookies())

	if isJSON(r) || strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, next, message string) {
	data := render.TemplateData{
		Title:  "Admin login",
		Robots: "noindex, nofollow",
		Path:   auth.LoginPath,
		Data:   loginPage{Error: message, Next: next},
	}
	if err := h.renderer.Render(w, status, "admin/login", data); err != nil {
		h.logger.Error("rendering login page", slog.String("error", err.Error()))
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
	}
}

// isJSON reports whether the request body is JSON.
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
