package pages

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/mkpages/mkpages/internal/config"
	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/logfields"
)

// Resolve binds the configured nav tree to the collected docs and returns
// the site: nav tree, ordered page list (nav order, then orphans), assets.
//
// A nav path with no file on disk is an error in strict mode; otherwise the
// entry is dropped with a warning. Files on disk missing from the nav are
// still built as orphan pages.
func Resolve(cfg *config.Config, col *Collection) (*Site, error) {
	site := &Site{Assets: col.Assets}

	nav := cfg.Nav
	if len(nav) == 0 {
		nav = deriveNav(col)
	}

	used := map[string]bool{}
	nodes, err := resolveLevel(cfg, col, nav, nil, used, site)
	if err != nil {
		return nil, err
	}
	site.Nav = nodes

	// Orphans: on disk but not in nav. Built and reported, not listed.
	for _, file := range col.Files() {
		if used[file] {
			continue
		}
		page := newPage(cfg, col.Sources[file], nil)
		page.InNav = false
		site.Pages = append(site.Pages, page)
		slog.Info("Page not referenced by nav (building anyway)", logfields.Page(file))
	}

	linkOrder(site.Pages)
	return site, nil
}

// resolveLevel walks one nav level, appending resolved pages to site.Pages
// in traversal order.
func resolveLevel(cfg *config.Config, col *Collection, nav config.Nav, sections []string, used map[string]bool, site *Site) ([]*NavNode, error) {
	var nodes []*NavNode
	for _, item := range nav {
		if item.IsSection() {
			children, err := resolveLevel(cfg, col, item.Children, append(sections, item.Title), used, site)
			if err != nil {
				return nil, err
			}
			// A section whose pages all got dropped disappears with them.
			if len(children) == 0 {
				continue
			}
			nodes = append(nodes, &NavNode{Title: item.Title, Children: children})
			continue
		}

		src, ok := col.Sources[item.Path]
		if !ok {
			msg := fmt.Sprintf("nav page %q not found in %s", item.Path, cfg.DocsDir)
			if cfg.Strict {
				return nil, serrors.New(serrors.CategoryValidation, serrors.SeverityFatal, msg).
					WithContext("page", item.Path)
			}
			site.Warnings = append(site.Warnings, msg)
			slog.Warn("Nav references missing page", logfields.Page(item.Path))
			continue
		}
		used[item.Path] = true

		page := newPage(cfg, src, sections)
		page.InNav = true
		if item.Title != "" {
			page.Title = item.Title
		}
		site.Pages = append(site.Pages, page)
		nodes = append(nodes, &NavNode{Title: page.Title, Page: page})
	}
	return nodes, nil
}

// newPage builds a Page from a source with title, URL and output path
// resolved. Title precedence below the nav title: frontmatter, first H1,
// title-cased filename.
func newPage(cfg *config.Config, src *Source, sections []string) *Page {
	title := src.Meta.Title
	if title == "" {
		title = firstH1(src.Body)
	}
	if title == "" {
		title = TitleFromFilename(path.Base(src.File))
	}

	url, out := pageAddress(src.File, cfg.DirectoryURLs())
	return &Page{
		File:        src.File,
		AbsPath:     src.AbsPath,
		Title:       title,
		Sections:    append([]string(nil), sections...),
		URL:         url,
		OutPath:     out,
		Meta:        src.Meta,
		Body:        src.Body,
		Fingerprint: src.Fingerprint,
	}
}

// pageAddress maps a docs-relative markdown path to its site URL and output
// file. With directory URLs, "guide/install.md" serves at "/guide/install/"
// from "guide/install/index.html"; without, at "/guide/install.html".
func pageAddress(file string, directoryURLs bool) (url, out string) {
	stem := strings.TrimSuffix(file, path.Ext(file))
	lowerStem := strings.ToLower(stem)

	if lowerStem == "index" {
		return "/", "index.html"
	}
	if strings.HasSuffix(lowerStem, "/index") {
		dir := stem[:len(stem)-len("/index")]
		return "/" + dir + "/", dir + "/index.html"
	}
	if directoryURLs {
		return "/" + stem + "/", stem + "/index.html"
	}
	return "/" + stem + ".html", stem + ".html"
}

// deriveNav builds a navigation tree from the directory structure when the
// config has no nav: index first, files alphabetically, then subdirectories
// as sections title-cased from the directory name.
func deriveNav(col *Collection) config.Nav {
	return deriveNavDir(col, "")
}

func deriveNavDir(col *Collection, dir string) config.Nav {
	var files []string
	subdirs := map[string]bool{}

	prefix := dir
	if prefix != "" {
		prefix += "/"
	}
	for _, file := range col.Files() {
		if !strings.HasPrefix(file, prefix) {
			continue
		}
		rest := file[len(prefix):]
		if idx := strings.Index(rest, "/"); idx >= 0 {
			subdirs[rest[:idx]] = true
			continue
		}
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		// index.md sorts first within its directory.
		ii := strings.EqualFold(path.Base(files[i]), "index.md")
		ij := strings.EqualFold(path.Base(files[j]), "index.md")
		if ii != ij {
			return ii
		}
		return files[i] < files[j]
	})

	var nav config.Nav
	for _, f := range files {
		nav = append(nav, config.NavItem{Path: f})
	}

	names := make([]string, 0, len(subdirs))
	for name := range subdirs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		children := deriveNavDir(col, prefix+name)
		if len(children) == 0 {
			continue
		}
		nav = append(nav, config.NavItem{Title: TitleFromFilename(name), Children: children})
	}
	return nav
}

// firstH1 scans for the first ATX level-1 heading.
func firstH1(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}

// linkOrder wires prev/next pointers over the global ordered page list.
func linkOrder(pages []*Page) {
	for i, p := range pages {
		if i > 0 {
			p.Prev = pages[i-1]
		}
		if i < len(pages)-1 {
			p.Next = pages[i+1]
		}
	}
}
