// Package plain is the minimal theme: single stylesheet, no scripts, no
// search box. Suitable for embedding docs where the surrounding site
// supplies chrome.
package plain

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

type plain struct{}

func init() {
	theme.Register(plain{})
}

func (plain) Name() string { return "plain" }

func (plain) Features() theme.Capabilities { return theme.Capabilities{} }

func (plain) Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (plain) Render(w io.Writer, data *theme.PageData) error {
	return templates.ExecuteTemplate(w, "base", data)
}
