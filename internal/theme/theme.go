// Package theme defines the rendering contract between the build pipeline
// and the bundled site themes, plus the registry they install into.
package theme

import (
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/mkpages/mkpages/internal/pages"
)

// Theme turns resolved pages into complete HTML documents and contributes
// its own static files to the site output.
type Theme interface {
	// Name is the identifier accepted by theme.name in the config file.
	Name() string

	// Render writes the full HTML document for one page.
	Render(w io.Writer, data *PageData) error

	// Static returns the theme's bundled files, copied into the site under
	// assets/. May be nil for themes without static files.
	Static() fs.FS

	// Features reports what the theme supports; the pipeline skips work the
	// theme cannot use (palette stylesheet, search index wiring).
	Features() Capabilities
}

// Capabilities are the optional surfaces a theme implements.
type Capabilities struct {
	// SearchUI means the theme renders a search box and loads the index.
	SearchUI bool
	// Palette means the theme styles against the palette.css variables.
	Palette bool
	// LiveReload means the theme tolerates the dev server's reload script.
	LiveReload bool
}

// SiteData is the site-wide template input, built once per build.
type SiteData struct {
	Name        string
	URL         string
	Description string
	Author      string
	Copyright   string
	RepoName    string
	RepoURL     string
	Logo        string
	Favicon     string
	Features    map[string]bool
	Search      bool // search plugin active, themes render the search box
	Generator   string
	BuildTime   time.Time

	// Stylesheets beyond the theme's own, site-relative ("assets/palette.css").
	ExtraCSS []string
	// Scripts beyond the theme's own.
	ExtraJS []string
}

// HasFeature reports whether a theme.features flag is set.
func (s *SiteData) HasFeature(name string) bool { return s.Features[name] }

// PageData is the per-page template input.
type PageData struct {
	Site *SiteData
	Page *pages.Page
	Nav  []*pages.NavNode

	// EditURL links to the page source in the repository, empty when no
	// edit_uri applies.
	EditURL string
}

// Hidden reports a frontmatter hide entry ("navigation", "toc", "footer").
func (d *PageData) Hidden(element string) bool {
	return d.Page.Meta != nil && d.Page.Meta.Hidden(element)
}

// Rel resolves a site-relative target ("assets/theme.css" or "/guide/")
// relative to the current page, so the output works from any base path.
func (d *PageData) Rel(target string) string {
	target = strings.TrimPrefix(target, "/")
	depth := strings.Count(strings.TrimPrefix(d.Page.URL, "/"), "/")
	if depth == 0 {
		if target == "" {
			return "./"
		}
		return target
	}
	up := strings.Repeat("../", depth)
	if target == "" {
		return up
	}
	return path.Join(up, target) + trailingSlash(target)
}

// RelPage resolves another page's URL relative to the current page.
func (d *PageData) RelPage(p *pages.Page) string {
	if p == nil {
		return ""
	}
	return d.Rel(p.URL)
}

// path.Join drops trailing slashes; directory URLs need them back.
func trailingSlash(target string) string {
	if strings.HasSuffix(target, "/") {
		return "/"
	}
	return ""
}
