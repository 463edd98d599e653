// Package views renders the HTML pages. Templates are embedded in the binary; every page is
// parsed together with the shared layout and includes.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/KAsare1/Yatube-server/cmd/utils"
)

//go:embed templates
var templateFS embed.FS

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"imageURL": utils.ImageURL,
	}

	shared := []string{"templates/base.html", "templates/includes/*.html"}
	pages := map[string]*template.Template{}

	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == "templates/base.html" || strings.HasPrefix(path, "templates/includes/") {
			return nil
		}
		t, err := template.New("base").Funcs(funcs).ParseFS(templateFS, append(shared, path)...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		pages[strings.TrimPrefix(path, "templates/")] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{pages: pages}, nil
}

// Has reports whether a page template exists.
func (rd *Renderer) Has(name string) bool {
	_, ok := rd.pages[name]
	return ok
}

// Render executes page name with data; the current user is added under "User".
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	t, ok := rd.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	if user := utils.CurrentUser(r); user != nil {
		data["User"] = user
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// NotFound renders the 404 page.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, r, http.StatusNotFound, "core/404.html", map[string]interface{}{
		"Path": r.URL.Path,
	})
}
