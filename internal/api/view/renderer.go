// Package view renders the HTML pages and serves their static assets from
// files embedded in the binary.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// requiredPages are rendered by the page handlers and the error handler.
var requiredPages = []string{"index", "login", "signup", "landing", "error"}

// Renderer implements echo.Renderer. Every page is parsed together with the
// shared layout into its own template set, so page blocks never collide.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page once and fails when a page the
// handlers need is missing.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		tmpl, err := template.ParseFS(templatesFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	for _, name := range requiredPages {
		if !r.has(name) {
			return nil, fmt.Errorf("template %s missing", name)
		}
	}
	return r, nil
}

// Render executes the named page through the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// has reports whether a page named name exists.
func (r *Renderer) has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Static returns the embedded asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
