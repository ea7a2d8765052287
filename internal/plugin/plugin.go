// Package plugin defines the build plugin lifecycle and the registry the
// built-in plugins install into.
package plugin

import (
	"context"
	"log/slog"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/pages"
)

// Plugin hooks into the build at fixed points. A fresh instance is created
// per build, so implementations may keep per-build state between hooks.
type Plugin interface {
	// Name is the identifier accepted in the plugins config list.
	Name() string

	// Version is recorded in the build manifest.
	Version() string

	// OnConfig validates and absorbs the plugin's options. Errors abort
	// the build.
	OnConfig(cfg *config.Config, entry config.Entry) error

	// OnPagesResolved runs after nav resolution, before rendering. Plugins
	// may inject generated pages or annotate existing ones.
	OnPagesResolved(ctx *Context, site *pages.Site) error

	// OnPageRendered runs for every page after markdown conversion and
	// before the theme template, under the render worker pool.
	OnPageRendered(ctx *Context, page *pages.Page) error

	// OnPostBuild runs once after all pages are written. Output files go
	// through ctx.WriteFile so they land atomically.
	OnPostBuild(ctx *Context, site *pages.Site) error
}

// Context gives plugins access to build services without coupling them to
// the pipeline.
type Context struct {
	Context context.Context
	Logger  *slog.Logger
	Config  *config.Config

	// DocsDir and SiteDir are absolute paths for this build.
	DocsDir string
	SiteDir string

	// BuildID identifies the running build.
	BuildID string

	// WriteFile persists a site-dir-relative output file atomically.
	WriteFile func(relPath string, data []byte) error
}

// Hooks is a no-op base; plugins embed it and override the hooks they use.
type Hooks struct{}

func (Hooks) OnConfig(*config.Config, config.Entry) error { return nil }
func (Hooks) OnPagesResolved(*Context, *pages.Site) error { return nil }
func (Hooks) OnPageRendered(*Context, *pages.Page) error  { return nil }
func (Hooks) OnPostBuild(*Context, *pages.Site) error     { return nil }
