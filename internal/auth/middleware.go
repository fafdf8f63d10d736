package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// CookieName is the session marker cookie.
	CookieName = "admin_session"

	// LoginPath is the only admin page reachable without a session.
	LoginPath = "/admin/login"

	// DefaultNext is where a successful login lands without a usable next.
	DefaultNext = "/admin"
)

type contextKey string

const subjectKey contextKey = "adminSubject"

// SessionValidator checks a session marker and returns its subject.
// service.AuthService implements it; the secret is resolved per call.
type SessionValidator interface {
	ValidateSession(token string) (string, error)
}

// RequireAdmin gates admin pages. Requests without a valid marker are
// redirected (303) to the login page with the original path and query as
// the next parameter. The login page itself always passes.
func RequireAdmin(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == LoginPath {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := extractSubject(r, sessions)
			if err != nil {
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminAPI gates the admin JSON API. It answers 401 instead of
// redirecting, since a fetch() caller cannot follow a redirect to a form.
func RequireAdminAPI(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := extractSubject(r, sessions)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"ok":false,"error":"unauthorized","message":"admin session required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the subject stored by the gate middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

// IsAuthenticated reports whether r carries a valid marker. Used by pages
// that render differently for the admin but are not gated.
func IsAuthenticated(r *http.Request, sessions SessionValidator) bool {
	_, err := extractSubject(r, sessions)
	return err == nil
}

func extractSubject(r *http.Request, sessions SessionValidator) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return sessions.ValidateSession(cookie.Value)
}

// LoginURL is the login page URL carrying next as the return path.
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(SafeNext(next))
}

// SafeNext returns next if it is a local absolute path, otherwise
// DefaultNext. "//host" and "/\host" are rejected because browsers treat
// them as protocol-relative URLs, and so is anything with control
// characters: browsers drop tab and newline, turning "/\t/host" into
// "//host".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return DefaultNext
	}
	if strings.ContainsFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return DefaultNext
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return DefaultNext
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultNext
	}
	return next
}

// SetSessionCookie writes the marker cookie. secure is true in production.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the marker cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
