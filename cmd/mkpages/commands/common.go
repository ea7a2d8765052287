// Package commands implements the mkpages CLI command tree.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/logfields"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (default mkpages.yml or mkpages.yaml)"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	Quiet     bool             `short:"q" help:"Only log warnings and errors"`
	LogFormat string           `name:"log-format" enum:"text,json" default:"text" help:"Log output format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the documentation site"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site locally with livereload"`
	Check   CheckCmd   `cmd:"" help:"Verify configuration, navigation and links"`
	Init    InitCmd    `cmd:"" help:"Create a new mkpages project"`
	Deploy  DeployCmd  `cmd:"" help:"Publish the built site to a pages branch"`
	VerCmd  VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing and sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	switch {
	case c.Verbose:
		level = slog.LevelDebug
	case c.Quiet:
		level = slog.LevelWarn
	}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig loads the configuration and logs any warnings it produced.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, warnings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for _, warn := range warnings {
		logger.Warn("config warning",
			slog.String("field", warn.Field),
			slog.String("message", warn.Message))
	}
	logger.Debug("configuration loaded", logfields.Path(cfg.SourcePath()))
	return cfg, nil
}
