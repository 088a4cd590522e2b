package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer is a html/template renderer for Echo. A name of the form
// "page#block" renders only that block of the page, used for partial swaps.
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// NewTemplateRenderer parses the embedded pages with dates shown in loc.
func NewTemplateRenderer(loc *time.Location) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"frDate":     func(raw string) string { return FormatDate(raw, loc) },
		"frDateTime": func(raw string) string { return FormatDateTime(raw, loc) },
		"frTime": func(t time.Time) string {
			return t.In(loc).Format(frDateTimeLayout)
		},
		"actionURL": SiteActionURL,
		"listURL":   ListURL,
	}

	pages := []string{"sites.html"}
	r := &TemplateRenderer{Templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.Templates[page] = tmpl
	}
	return r, nil
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	page, block, partial := strings.Cut(name, "#")
	tmpl, ok := t.Templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	if partial {
		return tmpl.ExecuteTemplate(w, block, data)
	}
	if tmpl.Lookup("layout.html") != nil {
		return tmpl.ExecuteTemplate(w, "layout.html", data)
	}
	return tmpl.Execute(w, data)
}
