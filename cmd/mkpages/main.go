package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mkpages/mkpages/cmd/mkpages/commands"
	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("mkpages"),
		kong.Description("Static documentation site generator."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	global := &commands.Global{Logger: slog.Default()}
	err := ctx.Run(global, &cli)
	if err == nil {
		return
	}
	if errors.Is(err, commands.ErrFindings) {
		// findings are already printed by the check command
		os.Exit(1)
	}
	adapter := serrors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
	fmt.Fprintln(os.Stderr, adapter.FormatError(err))
	os.Exit(adapter.ExitCodeFor(err))
}
