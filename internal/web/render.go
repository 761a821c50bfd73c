// Package web renders the portal's HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/GTDGit/gtd_donate/internal/export"
	"github.com/GTDGit/gtd_donate/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Renderer is a gin HTML renderer over the embedded page templates. Every
// page is parsed together with the layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every embedded page.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}
		t, err := template.New(layoutFile).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.templates[name]
	if !ok {
		return missingTemplate{name: name}
	}
	return render.HTML{Template: t, Data: data}
}

type missingTemplate struct{ name string }

func (m missingTemplate) Render(http.ResponseWriter) error {
	return fmt.Errorf("template %q not found", m.name)
}

func (m missingTemplate) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

var funcs = template.FuncMap{
	"amount": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return export.Placeholder
		}
		return s
	},
	"paidOn": func(t time.Time) string {
		if t.IsZero() {
			return export.Placeholder
		}
		return t.Format("2006-01-02 15:04")
	},
	"sortMark":  sortMark,
	"sortNext":  sortNext,
	"rowNumber": rowNumber,
	"add":       func(a, b int) int { return a + b },
	"sub":       func(a, b int) int { return a - b },
}

func sortMark(q report.QueryState, key string) string {
	if q.Sort.Key != key {
		return ""
	}
	if q.Sort.Direction == report.SortDesc {
		return " ▼"
	}
	return " ▲"
}

// sortNext is the direction a click on the header of key sorts by.
func sortNext(q report.QueryState, key string) string {
	return string(q.Sort.Toggle(key).Direction)
}

// rowNumber is the 1-based position of row i of the current page in the
// whole result set.
func rowNumber(q report.QueryState, i int) int {
	size := q.PageSize
	if size <= 0 {
		size = report.DefaultPageSize
	}
	return (max(q.Page, 1)-1)*size + i + 1
}
