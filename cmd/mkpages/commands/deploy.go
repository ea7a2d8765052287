package commands

import (
	"context"
	"log/slog"

	"github.com/mkpages/mkpages/internal/deploy"
)

// DeployCmd implements the 'deploy' command.
type DeployCmd struct {
	Push    bool   `help:"Push the deploy branch to the configured remote"`
	Message string `short:"m" help:"Commit message, {sha} expands to the source HEAD commit"`
}

func (d *DeployCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	deployer, err := deploy.New(cfg, g.Logger)
	if err != nil {
		return err
	}
	result, err := deployer.Deploy(context.Background(), deploy.Options{
		Push:    d.Push,
		Message: d.Message,
	})
	if err != nil {
		return err
	}
	g.Logger.Info("deploy complete",
		slog.String("branch", result.Branch),
		slog.String("commit", result.Commit[:8]),
		slog.Int("files", result.Files),
		slog.Bool("pushed", result.Pushed))
	return nil
}
