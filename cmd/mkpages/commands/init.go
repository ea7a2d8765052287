package commands

import (
	"fmt"

	"github.com/mkpages/mkpages/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
	Bare  bool `help:"Write only the configuration file, no starter docs"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = config.DefaultConfigFiles[0]
	}
	if err := config.Init(path, i.Force, i.Bare); err != nil {
		return err
	}
	fmt.Printf("initialized project, configuration written to %s\n", path)
	if !i.Bare {
		fmt.Println("starter page written to docs/index.md")
	}
	return nil
}
