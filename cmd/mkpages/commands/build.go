package commands

import (
	"context"
	"log/slog"

	"github.com/mkpages/mkpages/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteDir     string `name:"site-dir" help:"Override the output directory"`
	Strict      bool   `help:"Treat build warnings as errors"`
	Clean       *bool  `negatable:"" help:"Remove the site directory before building (default from config)"`
	Incremental bool   `short:"i" help:"Skip pages whose content fingerprint is unchanged"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	if b.Strict {
		cfg.Strict = true
	}
	if b.Clean != nil {
		cfg.Build.Clean = b.Clean
	}
	if b.Incremental {
		cfg.Build.Incremental = true
	}

	builder, err := site.New(cfg, g.Logger, site.WithSiteDir(b.SiteDir))
	if err != nil {
		return err
	}
	report, err := builder.Build(context.Background())
	if report != nil {
		g.Logger.Info("build finished",
			slog.String("outcome", string(report.Outcome)),
			slog.Int("pages_rendered", report.PagesRendered),
			slog.Int("pages_skipped", report.PagesSkipped),
			slog.Int("assets_copied", report.AssetsCopied),
			slog.Int64("duration_ms", report.Duration().Milliseconds()))
		for _, warn := range report.Warnings {
			g.Logger.Warn("build warning", slog.String("message", warn))
		}
	}
	return err
}
