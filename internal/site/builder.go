// Package site assembles the output site: it runs the staged build pipeline
// over the docs tree, driving markdown rendering, theme templates, plugins
// and the build manifest.
package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mkpages/mkpages/internal/config"
	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/metrics"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/plugin"
	"github.com/mkpages/mkpages/internal/theme"
	"github.com/mkpages/mkpages/internal/version"

	// bundled themes install themselves
	_ "github.com/mkpages/mkpages/internal/theme/plain"
	_ "github.com/mkpages/mkpages/internal/theme/slate"

	// built-in plugins install themselves
	_ "github.com/mkpages/mkpages/internal/plugin/apiref"
	_ "github.com/mkpages/mkpages/internal/plugin/gitinfo"
	_ "github.com/mkpages/mkpages/internal/plugin/search"
)

// Stage names, in execution order.
const (
	StageClean    = "clean"
	StageCollect  = "collect"
	StageRender   = "render"
	StageAssets   = "assets"
	StagePlugins  = "plugins"
	StageFinalize = "finalize"
)

// Builder runs builds for one configuration. Safe to reuse across rebuilds
// as long as the configuration does not change.
type Builder struct {
	cfg      *config.Config
	docsDir  string // absolute
	siteDir  string // absolute
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option adjusts a Builder.
type Option func(*Builder)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithSiteDir overrides the output directory. The dev server uses this to
// build into a temp dir without touching the configured site_dir.
func WithSiteDir(dir string) Option {
	return func(b *Builder) {
		if dir != "" {
			b.siteDir = dir
		}
	}
}

// New creates a Builder. docs_dir and site_dir are resolved relative to the
// directory holding the config file.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := "."
	if cfg.SourcePath() != "" {
		base = filepath.Dir(cfg.SourcePath())
	}
	docsDir, err := filepath.Abs(filepath.Join(base, cfg.DocsDir))
	if err != nil {
		return nil, fmt.Errorf("resolve docs dir: %w", err)
	}
	siteDir, err := filepath.Abs(filepath.Join(base, cfg.SiteDir))
	if err != nil {
		return nil, fmt.Errorf("resolve site dir: %w", err)
	}

	b := &Builder{
		cfg:      cfg,
		docsDir:  docsDir,
		siteDir:  siteDir,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// DocsDir is the absolute docs directory.
func (b *Builder) DocsDir() string { return b.docsDir }

// SiteDir is the absolute output directory.
func (b *Builder) SiteDir() string { return b.siteDir }

// buildState carries mutable state across stages of one build.
type buildState struct {
	builder *Builder
	report  *Report

	renderer *markdown.Renderer
	theme    theme.Theme
	plugins  []plugin.Plugin

	col      *pages.Collection
	site     *pages.Site
	siteData *theme.SiteData

	configHash string
	siteHash   string
	prev       *Manifest // previous build, nil without incremental

	pctx *plugin.Context

	// per-page plugin hook failures, collected under the render pool
	mu           sync.Mutex
	pluginErrors []string
}

// Build runs the full pipeline and returns the report. With strict mode on,
// any accumulated warning fails the build after all stages ran.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	buildID := uuid.NewString()
	report := newReport(buildID)
	log := b.logger.With(logfields.BuildID(buildID))

	log.Info("build started",
		logfields.Path(b.docsDir),
		logfields.Theme(string(b.cfg.Theme.Name)))

	th, err := theme.Get(string(b.cfg.Theme.Name))
	if err != nil {
		return report, serrors.BuildFailed(StageRender, err)
	}
	renderer, err := markdown.Build(b.cfg.MarkdownExtensions)
	if err != nil {
		return report, serrors.BuildFailed(StageRender, err)
	}
	plugins, err := plugin.ForConfig(b.cfg)
	if err != nil {
		return report, serrors.PluginFailed("config", err)
	}
	configHash, err := b.cfg.Hash()
	if err != nil {
		return report, serrors.InternalError("hashing configuration", err)
	}

	bs := &buildState{
		builder:    b,
		report:     report,
		renderer:   renderer,
		theme:      th,
		plugins:    plugins,
		configHash: configHash,
	}
	bs.pctx = &plugin.Context{
		Context:   ctx,
		Logger:    log,
		Config:    b.cfg,
		DocsDir:   b.docsDir,
		SiteDir:   b.siteDir,
		BuildID:   buildID,
		WriteFile: bs.writePluginFile,
	}

	if b.cfg.Build.Incremental {
		if b.cfg.Build.CleanEnabled() {
			// The clean stage removes prior outputs, so nothing can be
			// skipped afterwards.
			log.Warn("incremental build has no effect while clean is enabled; set build.clean to false")
		}
		if prev, loadErr := LoadManifest(b.siteDir); loadErr == nil {
			bs.prev = prev
		}
	}

	stages := []Stage{
		{Name: StageClean, Fn: stageClean},
		{Name: StageCollect, Fn: stageCollect},
		{Name: StageRender, Fn: stageRender},
		{Name: StageAssets, Fn: stageAssets},
		{Name: StagePlugins, Fn: stagePlugins},
		{Name: StageFinalize, Fn: stageFinalize},
	}

	err = runStages(ctx, bs, stages)
	report.Warnings = append(report.Warnings, bs.pluginErrors...)
	report.finish()
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(string(report.Outcome))

	if err != nil {
		log.Error("build failed", logfields.Error(err))
		return report, err
	}

	if b.cfg.Strict && len(report.Warnings) > 0 {
		report.Outcome = OutcomeFailed
		return report, serrors.BuildFailed("strict",
			fmt.Errorf("%d warnings treated as errors:\n  %s",
				len(report.Warnings), strings.Join(report.Warnings, "\n  ")))
	}

	log.Info("build finished",
		logfields.Count(report.PagesRendered),
		slog.Int("skipped", report.PagesSkipped),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}

// siteHash fingerprints everything besides page content that affects page
// output: config, theme, and the resolved page set. A change disables all
// incremental skips.
func computeSiteHash(configHash string, themeName string, site *pages.Site) string {
	h := sha256.New()
	h.Write([]byte(configHash))
	h.Write([]byte{0})
	h.Write([]byte(themeName))
	for _, p := range site.Pages {
		h.Write([]byte{0})
		h.Write([]byte(p.File))
		h.Write([]byte{0})
		h.Write([]byte(p.Title))
		h.Write([]byte{0})
		h.Write([]byte(p.URL))
	}
	h.Write([]byte{0})
	h.Write([]byte(version.Version))
	return hex.EncodeToString(h.Sum(nil))
}

// writePluginFile persists a plugin output under the site dir, refusing
// paths that escape it.
func (bs *buildState) writePluginFile(rel string, data []byte) error {
	dst := filepath.Join(bs.builder.siteDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(dst, bs.builder.siteDir+string(filepath.Separator)) {
		return fmt.Errorf("plugin output path escapes site dir: %s", rel)
	}
	return writeFileAtomic(dst, data)
}

func (bs *buildState) addPluginError(pluginName, page string, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.pluginErrors = append(bs.pluginErrors,
		fmt.Sprintf("plugin %s on %s: %v", pluginName, page, err))
}
