package linkcheck

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/pages"
)

// ExternalRef is an http(s) link found in a source document, handed to the
// external checker separately.
type ExternalRef struct {
	Page string
	URL  string
	Line int
}

// SourceChecker resolves markdown links against the resolved page set.
type SourceChecker struct {
	renderer *markdown.Renderer
	site     *pages.Site
	logger   *slog.Logger

	pageFiles map[string]*pages.Page // docs-relative .md path
	pageURLs  map[string]*pages.Page // site-relative URL
	assets    map[string]bool        // docs-relative asset path

	anchors map[string]map[string]bool // page file -> heading ids
}

// NewSourceChecker indexes the site for link resolution.
func NewSourceChecker(renderer *markdown.Renderer, site *pages.Site, logger *slog.Logger) *SourceChecker {
	if logger == nil {
		logger = slog.Default()
	}
	c := &SourceChecker{
		renderer:  renderer,
		site:      site,
		logger:    logger,
		pageFiles: make(map[string]*pages.Page, len(site.Pages)),
		pageURLs:  make(map[string]*pages.Page, len(site.Pages)),
		assets:    make(map[string]bool, len(site.Assets)),
		anchors:   make(map[string]map[string]bool),
	}
	for _, p := range site.Pages {
		c.pageFiles[p.File] = p
		c.pageURLs[p.URL] = p
	}
	for _, a := range site.Assets {
		c.assets[a.File] = true
	}
	return c
}

// Check walks every page's markdown links. Broken internal references become
// findings; external references are returned for the external checker.
func (c *SourceChecker) Check() (*Result, []ExternalRef, error) {
	start := time.Now()
	res := &Result{}
	var external []ExternalRef

	for _, page := range c.site.Pages {
		if page.Generated {
			continue
		}
		links, err := c.renderer.ExtractLinks(page.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("extract links from %s: %w", page.File, err)
		}
		for _, link := range links {
			res.LinksChecked++
			switch classify(link.URL) {
			case linkSkip:
				continue
			case linkExternal:
				external = append(external, ExternalRef{Page: page.File, URL: link.URL, Line: link.Line})
			case linkInternal:
				if f := c.resolve(page, link); f != nil {
					res.Findings = append(res.Findings, *f)
				}
			}
		}
	}

	res.Duration = time.Since(start)
	res.Sort()
	c.logger.Debug("source link check done",
		logfields.Count(res.LinksChecked),
		slog.Int("broken", len(res.Findings)))
	return res, external, nil
}

type linkClass int

const (
	linkInternal linkClass = iota
	linkExternal
	linkSkip
)

func classify(raw string) linkClass {
	switch {
	case raw == "":
		return linkSkip
	case strings.HasPrefix(raw, "mailto:"),
		strings.HasPrefix(raw, "tel:"),
		strings.HasPrefix(raw, "javascript:"),
		strings.HasPrefix(raw, "data:"):
		return linkSkip
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return linkExternal
	}
	if u, err := url.Parse(raw); err != nil || u.Scheme != "" {
		return linkSkip
	}
	return linkInternal
}

// resolve checks one internal link and returns a finding when broken.
func (c *SourceChecker) resolve(page *pages.Page, link markdown.Link) *Finding {
	target, frag, _ := strings.Cut(link.URL, "#")

	// bare fragment: anchor within the same page
	if target == "" {
		if !c.hasAnchor(page, frag) {
			return &Finding{
				Page: page.File, URL: link.URL, Kind: KindAnchor, Line: link.Line,
				Reason: fmt.Sprintf("no heading %q on this page", frag),
			}
		}
		return nil
	}

	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}

	// site-absolute or directory-style targets resolve against page URLs
	if strings.HasPrefix(target, "/") || strings.HasSuffix(target, "/") {
		resolved := target
		if !strings.HasPrefix(resolved, "/") {
			resolved = "/" + path.Clean(path.Join(path.Dir(page.File), resolved)) + "/"
		}
		dst, ok := c.pageURLs[resolved]
		if !ok && !strings.HasSuffix(resolved, "/") {
			dst, ok = c.pageURLs[resolved+"/"]
		}
		if !ok {
			return &Finding{
				Page: page.File, URL: link.URL, Kind: KindPage, Line: link.Line,
				Reason: fmt.Sprintf("no page at %s", resolved),
			}
		}
		return c.checkFragment(page, dst, link, frag)
	}

	rel := path.Clean(path.Join(path.Dir(page.File), target))
	if strings.HasPrefix(rel, "..") {
		return &Finding{
			Page: page.File, URL: link.URL, Kind: KindAsset, Line: link.Line,
			Reason: "target escapes the docs directory",
		}
	}

	if strings.HasSuffix(strings.ToLower(rel), ".md") {
		dst, ok := c.pageFiles[rel]
		if !ok {
			return &Finding{
				Page: page.File, URL: link.URL, Kind: KindPage, Line: link.Line,
				Reason: fmt.Sprintf("no such page %s", rel),
			}
		}
		return c.checkFragment(page, dst, link, frag)
	}

	if c.assets[rel] || c.pageFiles[rel] != nil {
		return nil
	}
	return &Finding{
		Page: page.File, URL: link.URL, Kind: KindAsset, Line: link.Line,
		Reason: fmt.Sprintf("no such file %s", rel),
	}
}

func (c *SourceChecker) checkFragment(page, dst *pages.Page, link markdown.Link, frag string) *Finding {
	if frag == "" {
		return nil
	}
	if !c.hasAnchor(dst, frag) {
		return &Finding{
			Page: page.File, URL: link.URL, Kind: KindAnchor, Line: link.Line,
			Reason: fmt.Sprintf("no heading %q in %s", frag, dst.File),
		}
	}
	return nil
}

// hasAnchor reports whether the page has a heading with the given id.
// Headings are converted on first use and memoized.
func (c *SourceChecker) hasAnchor(p *pages.Page, id string) bool {
	ids, ok := c.anchors[p.File]
	if !ok {
		ids = make(map[string]bool)
		headings := p.Headings
		if len(headings) == 0 && len(p.Body) > 0 {
			if res, err := c.renderer.Convert(p.Body); err == nil {
				headings = res.Headings
			}
		}
		for _, h := range headings {
			ids[h.ID] = true
		}
		c.anchors[p.File] = ids
	}
	return ids[id]
}
