package site

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/theme"
)

// stageAssets copies docs assets and theme static files into the site, and
// emits the generated stylesheets (palette.css, highlight.css).
func stageAssets(ctx context.Context, bs *buildState) error {
	siteDir := bs.builder.siteDir

	for _, asset := range bs.site.Assets {
		select {
		case <-ctx.Done():
			return &StageError{Kind: StageErrorCanceled, Stage: StageAssets, Err: ctx.Err()}
		default:
		}
		dst := filepath.Join(siteDir, filepath.FromSlash(asset.File))
		if err := copyFile(asset.AbsPath, dst); err != nil {
			return serrors.BuildFailed(StageAssets, err)
		}
		bs.report.AssetsCopied++
	}

	if static := bs.theme.Static(); static != nil {
		if err := copyThemeStatic(static, filepath.Join(siteDir, "assets")); err != nil {
			return serrors.BuildFailed(StageAssets, err)
		}
	}

	if bs.theme.Features().Palette {
		var buf bytes.Buffer
		if err := theme.WritePaletteCSS(&buf, bs.builder.cfg.Theme.Palette); err != nil {
			return serrors.BuildFailed(StageAssets, err)
		}
		if err := writeFileAtomic(filepath.Join(siteDir, "assets", "palette.css"), buf.Bytes()); err != nil {
			return serrors.BuildFailed(StageAssets, err)
		}
	}

	var hl bytes.Buffer
	if ok, err := bs.renderer.WriteHighlightCSS(&hl); err != nil {
		return serrors.BuildFailed(StageAssets, err)
	} else if ok {
		if err := writeFileAtomic(filepath.Join(siteDir, "assets", "highlight.css"), hl.Bytes()); err != nil {
			return serrors.BuildFailed(StageAssets, err)
		}
	}

	return checkThemeFiles(bs)
}

// copyThemeStatic copies the theme's embedded static tree under assets/.
func copyThemeStatic(static fs.FS, dstRoot string) error {
	return fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, readErr := fs.ReadFile(static, path)
		if readErr != nil {
			return fmt.Errorf("theme asset %s: %w", path, readErr)
		}
		return writeFileAtomic(filepath.Join(dstRoot, filepath.FromSlash(path)), data)
	})
}

// checkThemeFiles verifies the configured logo and favicon exist in the
// docs tree. Missing files are warnings; the reference is left as written.
func checkThemeFiles(bs *buildState) error {
	var missing []string
	for _, ref := range []string{bs.builder.cfg.Theme.Logo, bs.builder.cfg.Theme.Favicon} {
		if ref == "" {
			continue
		}
		p := filepath.Join(bs.builder.docsDir, filepath.FromSlash(ref))
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, ref)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	for _, m := range missing {
		bs.builder.logger.Warn("theme file not found in docs dir", logfields.File(m))
	}
	return warnStageError(StageAssets,
		fmt.Errorf("theme files not found in docs dir: %v", missing))
}

// stagePlugins runs the post-build hooks; plugin outputs land atomically
// through the context's WriteFile.
func stagePlugins(ctx context.Context, bs *buildState) error {
	for _, p := range bs.plugins {
		select {
		case <-ctx.Done():
			return &StageError{Kind: StageErrorCanceled, Stage: StagePlugins, Err: ctx.Err()}
		default:
		}
		if err := p.OnPostBuild(bs.pctx, bs.site); err != nil {
			return serrors.PluginFailed(p.Name(), err)
		}
	}
	return nil
}
