package site

import (
	"bytes"
	"context"
	"encoding/xml"
	"path/filepath"
	"strings"
	"time"

	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/theme"
	"github.com/mkpages/mkpages/internal/version"
)

// stageFinalize emits the cross-page artifacts: sitemap.xml, the themed
// 404 page, and the build manifest.
func stageFinalize(ctx context.Context, bs *buildState) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Kind: StageErrorCanceled, Stage: StageFinalize, Err: err}
	}

	if bs.builder.cfg.SiteURL != "" {
		if err := writeSitemap(bs); err != nil {
			return serrors.BuildFailed(StageFinalize, err)
		}
	} else {
		bs.builder.logger.Debug("site_url not set, skipping sitemap")
	}

	if err := writeNotFoundPage(bs); err != nil {
		return serrors.BuildFailed(StageFinalize, err)
	}

	m := bs.newManifest()
	if err := writeManifest(bs.builder.siteDir, m); err != nil {
		return serrors.BuildFailed(StageFinalize, err)
	}
	bs.builder.logger.Debug("manifest written",
		logfields.Count(m.PageCount))
	return nil
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// writeSitemap lists every page in nav order under the configured site URL.
func writeSitemap(bs *buildState) error {
	base := strings.TrimSuffix(bs.builder.cfg.SiteURL, "/")
	set := sitemapSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	today := time.Now().Format("2006-01-02")
	for _, page := range bs.site.Pages {
		u := sitemapURL{Loc: base + page.URL, LastMod: today}
		if page.LastUpdated != "" {
			u.LastMod = page.LastUpdated
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	buf.WriteByte('\n')
	return writeFileAtomic(filepath.Join(bs.builder.siteDir, "sitemap.xml"), buf.Bytes())
}

const notFoundBody = `# Page not found

The page you were looking for does not exist. It may have been moved or
removed. Try the navigation, or head back to the [home page](.).
`

// writeNotFoundPage renders 404.html through the active theme so the error
// page matches the rest of the site.
func writeNotFoundPage(bs *buildState) error {
	res, err := bs.renderer.Convert([]byte(notFoundBody))
	if err != nil {
		return err
	}
	page := &pages.Page{
		File:      "404.md",
		Title:     "Page not found",
		URL:       "/",
		OutPath:   "404.html",
		HTML:      res.HTML,
		Headings:  res.Headings,
		PlainText: res.PlainText,
		Generated: true,
	}

	var buf bytes.Buffer
	data := &theme.PageData{
		Site: bs.siteData,
		Page: page,
		Nav:  bs.site.Nav,
	}
	if err := bs.theme.Render(&buf, data); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(bs.builder.siteDir, "404.html"), buf.Bytes())
}

// newManifest snapshots the finished build. Stage durations for finalize
// itself are not included since it is still running.
func (bs *buildState) newManifest() *Manifest {
	m := &Manifest{
		ID:           bs.report.BuildID,
		Generator:    "mkpages " + version.Version,
		Timestamp:    time.Now().UTC(),
		ConfigHash:   bs.configHash,
		SiteHash:     bs.siteHash,
		Theme:        bs.theme.Name(),
		PageCount:    len(bs.site.Pages),
		Stages:       make(map[string]int64, len(bs.report.StageDurations)),
		Fingerprints: make(map[string]string, len(bs.site.Pages)),
		DurationMS:   time.Since(bs.report.Start).Milliseconds(),
	}
	for name, d := range bs.report.StageDurations {
		m.Stages[name] = d.Milliseconds()
	}
	for _, p := range bs.plugins {
		m.Plugins = append(m.Plugins, PluginVersion{Name: p.Name(), Version: p.Version()})
	}
	for _, page := range bs.site.Pages {
		if page.Fingerprint != "" {
			m.Fingerprints[page.File] = page.Fingerprint
		}
	}
	return m
}
