package site

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mkpages/mkpages/internal/config"
	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/theme"
	"github.com/mkpages/mkpages/internal/version"
)

// stageCollect walks the docs tree and resolves the nav, then gives plugins
// their chance to inject pages.
func stageCollect(ctx context.Context, bs *buildState) error {
	col, err := pages.Collect(bs.builder.docsDir)
	if err != nil {
		return serrors.BuildFailed(StageCollect, err)
	}
	bs.col = col

	site, err := pages.Resolve(bs.builder.cfg, col)
	if err != nil {
		return err
	}
	bs.site = site
	bs.report.Warnings = append(bs.report.Warnings, site.Warnings...)

	for _, p := range bs.plugins {
		if err := p.OnPagesResolved(bs.pctx, site); err != nil {
			return serrors.PluginFailed(p.Name(), err)
		}
	}

	bs.siteData = bs.builder.newSiteData(bs)
	bs.siteHash = computeSiteHash(bs.configHash, bs.theme.Name(), site)
	return nil
}

// newSiteData assembles the site-wide template input.
func (b *Builder) newSiteData(bs *buildState) *theme.SiteData {
	cfg := b.cfg
	feats := bs.theme.Features()

	features := make(map[string]bool, len(cfg.Theme.Features))
	for _, f := range cfg.Theme.Features {
		features[f] = true
	}

	searchActive := false
	for _, p := range bs.plugins {
		if p.Name() == config.PluginSearch {
			searchActive = true
		}
	}

	data := &theme.SiteData{
		Name:        cfg.SiteName,
		URL:         cfg.SiteURL,
		Description: cfg.SiteDescription,
		Author:      cfg.SiteAuthor,
		Copyright:   cfg.Copyright,
		RepoName:    cfg.RepoName,
		RepoURL:     cfg.RepoURL,
		Logo:        cfg.Theme.Logo,
		Favicon:     cfg.Theme.Favicon,
		Features:    features,
		Search:      searchActive && feats.SearchUI,
		Generator:   "mkpages " + version.Version,
	}
	if feats.Palette {
		data.ExtraCSS = append(data.ExtraCSS, "assets/palette.css")
	}
	if bs.renderer.HighlightEnabled() {
		data.ExtraCSS = append(data.ExtraCSS, "assets/highlight.css")
	}
	return data
}

// stageRender converts and writes every page under a bounded worker pool.
func stageRender(ctx context.Context, bs *buildState) error {
	workers := bs.builder.cfg.Build.Concurrency
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *pages.Page)
	errs := make(chan error, len(bs.site.Pages))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				if err := bs.renderPage(ctx, page); err != nil {
					errs <- err
				}
			}
		}()
	}

feed:
	for _, page := range bs.site.Pages {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- page:
		}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := ctx.Err(); err != nil {
		return &StageError{Kind: StageErrorCanceled, Stage: StageRender, Err: err}
	}
	for err := range errs {
		// first render failure aborts; the rest are alike
		return err
	}
	return nil
}

// renderPage converts one page, runs per-page plugin hooks, and writes the
// themed document unless the incremental cache says it is unchanged.
func (bs *buildState) renderPage(ctx context.Context, page *pages.Page) error {
	res, err := bs.renderer.Convert(page.Body)
	if err != nil {
		return serrors.RenderFailed(page.File, err)
	}
	page.HTML = res.HTML
	page.Headings = res.Headings
	page.PlainText = res.PlainText

	for _, p := range bs.plugins {
		if hookErr := p.OnPageRendered(bs.pctx, page); hookErr != nil {
			bs.addPluginError(p.Name(), page.File, hookErr)
		}
	}

	outPath := filepath.Join(bs.builder.siteDir, filepath.FromSlash(page.OutPath))
	if bs.canSkip(page, outPath) {
		bs.mu.Lock()
		bs.report.PagesSkipped++
		bs.mu.Unlock()
		bs.builder.recorder.AddPagesSkipped(1)
		return nil
	}

	var buf bytes.Buffer
	data := &theme.PageData{
		Site:    bs.siteData,
		Page:    page,
		Nav:     bs.site.Nav,
		EditURL: bs.builder.editURL(page),
	}
	if err := bs.theme.Render(&buf, data); err != nil {
		return serrors.RenderFailed(page.File, err)
	}
	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return serrors.RenderFailed(page.File, err)
	}

	bs.mu.Lock()
	bs.report.PagesRendered++
	bs.mu.Unlock()
	bs.builder.recorder.AddPagesRendered(1)
	bs.builder.logger.Debug("page rendered", logfields.Page(page.File))
	return nil
}

// canSkip reports whether the incremental cache proves the written output
// is already current: same site hash, same content fingerprint, output
// present on disk.
func (bs *buildState) canSkip(page *pages.Page, outPath string) bool {
	if bs.prev == nil || page.Fingerprint == "" {
		return false
	}
	if bs.prev.SiteHash != bs.siteHash {
		return false
	}
	if bs.prev.Fingerprints[page.File] != page.Fingerprint {
		return false
	}
	_, err := os.Stat(outPath)
	return err == nil
}

// editURL composes the repository edit link for a page's source file.
func (b *Builder) editURL(page *pages.Page) string {
	cfg := b.cfg
	if cfg.RepoURL == "" || cfg.EditURI == "" || page.Generated {
		return ""
	}
	return strings.TrimSuffix(cfg.RepoURL, "/") + "/" +
		strings.Trim(cfg.EditURI, "/") + "/" + page.File
}
