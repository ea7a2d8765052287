package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	serrors "github.com/mkpages/mkpages/internal/errors"
)

// stageClean empties the site dir when build.clean is on. A directory that
// does not carry the build marker and is not empty is refused, so a typo in
// site_dir cannot wipe unrelated files.
func stageClean(ctx context.Context, bs *buildState) error {
	siteDir := bs.builder.siteDir
	if !bs.builder.cfg.Build.CleanEnabled() {
		return os.MkdirAll(siteDir, 0o755)
	}

	entries, err := os.ReadDir(siteDir)
	if os.IsNotExist(err) {
		return os.MkdirAll(siteDir, 0o755)
	}
	if err != nil {
		return serrors.SiteDirError("read", err)
	}

	if len(entries) > 0 && !looksLikeBuildOutput(siteDir) {
		return serrors.SiteDirError("clean",
			fmt.Errorf("%s is not empty and has no %s marker; refusing to delete it", siteDir, ManifestDir))
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(siteDir, entry.Name())); err != nil {
			return serrors.SiteDirError("clean", err)
		}
	}
	return nil
}

// looksLikeBuildOutput checks for the marker directory a previous build left.
func looksLikeBuildOutput(siteDir string) bool {
	st, err := os.Stat(filepath.Join(siteDir, ManifestDir))
	return err == nil && st.IsDir()
}
