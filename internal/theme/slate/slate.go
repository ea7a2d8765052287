// Package slate is the default theme: sidebar navigation, palette-driven
// colors and a client-side search box.
package slate

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/mkpages/mkpages/internal/theme"
)

//go:embed templates static
var files embed.FS

var templates = template.Must(template.ParseFS(files, "templates/*.tmpl"))

type slate struct{}

func init() {
	theme.Register(slate{})
}

func (slate) Name() string { return "slate" }

func (slate) Features() theme.Capabilities {
	return theme.Capabilities{SearchUI: true, Palette: true, LiveReload: true}
}

func (slate) Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (slate) Render(w io.Writer, data *theme.PageData) error {
	return templates.ExecuteTemplate(w, "base", data)
}
