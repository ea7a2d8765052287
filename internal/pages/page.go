// Package pages binds the configured navigation tree to markdown files on
// disk and produces the ordered page list the build pipeline renders.
package pages

import (
	"html/template"
	"strings"

	"github.com/mkpages/mkpages/internal/frontmatter"
	"github.com/mkpages/mkpages/internal/markdown"
)

// Page is one markdown document flowing through the build.
type Page struct {
	// File is the docs-relative source path, slash-separated.
	File string
	// AbsPath is the absolute path on disk; empty for generated pages.
	AbsPath string
	// Title after resolution: nav title, frontmatter title, first H1, or
	// title-cased filename, in that order.
	Title string
	// Sections is the nav ancestry chain ("API Reference" > ...).
	Sections []string

	// URL is the site-relative address with a leading slash ("/guide/").
	URL string
	// OutPath is the site-dir-relative output file ("guide/index.html").
	OutPath string

	Meta *frontmatter.Meta
	// Body is the markdown source with frontmatter removed.
	Body []byte
	// Fingerprint is the mdfp content fingerprint of the source file;
	// empty for generated pages.
	Fingerprint string

	// Filled by the render stage.
	HTML      template.HTML
	Headings  []markdown.Heading
	PlainText string

	// Prev and Next follow the global ordered page list.
	Prev *Page
	Next *Page

	// InNav is false for orphan pages built from disk but absent from the
	// configured navigation.
	InNav bool
	// Generated marks pages injected by plugins rather than read from disk.
	Generated bool

	// LastUpdated is set by the gitinfo plugin when available (formatted
	// per its date_format option).
	LastUpdated string
}

// IsIndex reports whether the page is a directory index document.
func (p *Page) IsIndex() bool {
	lower := strings.ToLower(p.File)
	return lower == "index.md" || strings.HasSuffix(lower, "/index.md")
}

// Asset is a non-markdown file copied into the site verbatim.
type Asset struct {
	File    string // docs-relative, slash-separated
	AbsPath string
}

// NavNode is the resolved navigation tree handed to themes. Page is nil for
// section nodes.
type NavNode struct {
	Title    string
	Page     *Page
	Children []*NavNode
}

// IsSection reports whether the node groups children instead of linking a page.
func (n *NavNode) IsSection() bool { return n.Page == nil }

// Site is the result of nav resolution: every page in global order, the nav
// tree, and the assets found beside the markdown.
type Site struct {
	Pages  []*Page
	Nav    []*NavNode
	Assets []Asset

	// Warnings collected during resolution (missing nav targets outside
	// strict mode, etc.).
	Warnings []string
}

// Homepage returns the first resolved page, or nil for an empty site.
func (s *Site) Homepage() *Page {
	if len(s.Pages) == 0 {
		return nil
	}
	return s.Pages[0]
}

// PageByFile returns the page with the given docs-relative path, or nil.
func (s *Site) PageByFile(file string) *Page {
	for _, p := range s.Pages {
		if p.File == file {
			return p
		}
	}
	return nil
}
