// Package render parses the embedded HTML templates once at startup and
// renders pages into the base layout.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sakif/portfolio/internal/model"
)

const baseLayout = "layouts/base.html"

// Renderer holds one parsed template set per page.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page under pages/ and admin/ in templatesFS together
// with the base layout. Pages are named "pages/home", "admin/login", ...
func New(templatesFS fs.FS) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, dir := range []string{"pages", "admin"} {
		files, err := templateFiles(templatesFS, dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s templates: %w", dir, err)
		}
		for _, file := range files {
			name := dir + "/" + strings.TrimSuffix(path.Base(file), ".html")

			tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, baseLayout, file)
			if err != nil {
				return nil, fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	return r, nil
}

func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"year": func() int { return time.Now().Year() },
		"mailto": func(email string) template.URL {
			return template.URL("mailto:" + email)
		},
	}
}

// TemplateData is passed to every page.
type TemplateData struct {
	// Head
	Title       string
	Description string
	Robots      string
	Canonical   string
	SEO         *model.SEO

	Site    *model.Site
	Path    string
	IsAdmin bool

	// Data is the page-specific payload.
	Data any
}

// Has reports whether a page template called name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes page name into a buffer first, so a template error never
// leaves a half-written response, then writes it with status.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
