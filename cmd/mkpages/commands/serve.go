package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mkpages/mkpages/internal/serve"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Listen       string `short:"l" help:"Listen address, overrides serve.listen"`
	NoLivereload bool   `name:"no-livereload" help:"Disable livereload script injection"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}

	opts := []serve.ServerOption{serve.WithListen(s.Listen)}
	if s.NoLivereload {
		opts = append(opts, serve.WithoutLiveReload())
	}
	srv, err := serve.New(cfg, g.Logger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
