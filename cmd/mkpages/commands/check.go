package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/eventstore"
	"github.com/mkpages/mkpages/internal/linkcheck"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/pages"
)

// ErrFindings signals broken links were found; main maps it to exit code 1.
var ErrFindings = errors.New("verification found broken links")

const (
	defaultExternalTimeout     = 10 * time.Second
	defaultExternalConcurrency = 8
)

// CheckCmd implements the 'check' command. It renders the page set in memory
// and never writes the site directory.
type CheckCmd struct {
	External bool   `help:"Also verify external links over HTTP"`
	Rendered bool   `help:"Also verify links inside the rendered HTML in site_dir"`
	Format   string `enum:"text,json" default:"text" help:"Findings output format"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	ctx := context.Background()
	start := time.Now()
	runID := uuid.NewString()

	base := "."
	if cfg.SourcePath() != "" {
		base = filepath.Dir(cfg.SourcePath())
	}
	docsDir, err := filepath.Abs(filepath.Join(base, cfg.DocsDir))
	if err != nil {
		return fmt.Errorf("resolve docs dir: %w", err)
	}

	renderer, err := markdown.Build(cfg.MarkdownExtensions)
	if err != nil {
		return err
	}
	col, err := pages.Collect(docsDir)
	if err != nil {
		return err
	}
	siteModel, err := pages.Resolve(cfg, col)
	if err != nil {
		return err
	}

	result, refs, err := linkcheck.NewSourceChecker(renderer, siteModel, g.Logger).Check()
	if err != nil {
		return err
	}

	if c.Rendered {
		siteDir, err := filepath.Abs(filepath.Join(base, cfg.SiteDir))
		if err != nil {
			return fmt.Errorf("resolve site dir: %w", err)
		}
		rendered, renderedRefs, err := linkcheck.NewRenderedChecker(siteDir, g.Logger).Check()
		if err != nil {
			return err
		}
		mergeResults(result, rendered)
		refs = append(refs, renderedRefs...)
	}

	if c.External {
		external, err := c.checkExternal(ctx, cfg, g, runID, refs)
		if err != nil {
			return err
		}
		mergeResults(result, external)
	}

	result.Duration = time.Since(start)
	result.Sort()
	c.recordRun(ctx, cfg, g, runID, result)

	if c.Format == "json" {
		if err := result.WriteJSON(os.Stdout); err != nil {
			return err
		}
	} else if err := result.WriteText(os.Stdout); err != nil {
		return err
	}

	if result.Broken() {
		return ErrFindings
	}
	return nil
}

func (c *CheckCmd) checkExternal(ctx context.Context, cfg *config.Config, g *Global, runID string, refs []linkcheck.ExternalRef) (*linkcheck.Result, error) {
	timeout := defaultExternalTimeout
	if cfg.Validation.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Validation.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	maxConcurrent := cfg.Validation.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultExternalConcurrency
	}

	opts := []linkcheck.ExternalOption{linkcheck.WithBuildID(runID)}
	if cfg.Validation.NATSURL != "" && cfg.Validation.KVBucket != "" {
		cache, err := linkcheck.NewNATSCache(&cfg.Validation, g.Logger)
		if err != nil {
			g.Logger.Warn("link cache unavailable, checking uncached", logfields.Error(err))
		} else {
			defer cache.Close()
			opts = append(opts, linkcheck.WithCache(cache))
		}
	}

	checker := linkcheck.NewExternalChecker(timeout, maxConcurrent, g.Logger, opts...)
	return checker.Check(ctx, refs)
}

// recordRun appends a verify event to the history store when configured.
func (c *CheckCmd) recordRun(ctx context.Context, cfg *config.Config, g *Global, runID string, result *linkcheck.Result) {
	path := cfg.Validation.HistoryDB
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) && cfg.SourcePath() != "" {
		path = filepath.Join(filepath.Dir(cfg.SourcePath()), path)
	}
	store, err := eventstore.Open(path)
	if err != nil {
		g.Logger.Warn("history db unavailable", logfields.Error(err))
		return
	}
	defer store.Close()

	payload := eventstore.VerifyPayload{
		LinksChecked: result.LinksChecked,
		Broken:       len(result.Findings),
		DurationMS:   result.Duration.Milliseconds(),
	}
	if err := store.AppendJSON(ctx, runID, eventstore.TypeVerifyCompleted, payload); err != nil {
		g.Logger.Warn("history append failed", logfields.Error(err))
	}
}

func mergeResults(dst, src *linkcheck.Result) {
	if src == nil {
		return
	}
	dst.LinksChecked += src.LinksChecked
	dst.Findings = append(dst.Findings, src.Findings...)
}
