package commands

import (
	"fmt"

	"github.com/mkpages/mkpages/internal/version"
)

// VersionCmd prints version and build metadata.
type VersionCmd struct{}

func (VersionCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("mkpages %s (commit %s, built %s)\n",
		version.Version, version.GitCommit, version.BuildTime)
	return nil
}
