// Package web embeds the server-rendered form page and its static assets.
package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/form"
)

//go:embed templates static
var assets embed.FS

var pageTemplate = template.Must(
	template.New("index.html.tmpl").
		Funcs(template.FuncMap{"deref": deref}).
		ParseFS(assets, "templates/index.html.tmpl"),
)

// Page is the data rendered into the form template.
type Page struct {
	PageID    string
	Fields    []domain.FieldDef
	View      form.View
	BusyLabel string
}

// NewPage builds the render data for a page view.
func NewPage(pageID string, view form.View) Page {
	return Page{
		PageID:    pageID,
		Fields:    domain.Catalog,
		View:      view,
		BusyLabel: form.BusyLabel,
	}
}

// Render writes the form page to w.
func Render(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}

// StaticHandler serves the embedded stylesheet and script. Mount it under
// /static/.
func StaticHandler() http.Handler {
	subFS, err := fs.Sub(assets, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(subFS)))
}

func deref(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
