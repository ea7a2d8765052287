package pages

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"github.com/mkpages/mkpages/internal/frontmatter"
	"github.com/mkpages/mkpages/internal/logfields"
)

// Collection holds the raw contents of a docs directory before nav
// resolution: markdown sources keyed by docs-relative path, plus assets.
type Collection struct {
	DocsDir string
	Sources map[string]*Source
	Assets  []Asset

	// order preserves the walk order (lexical) for derived navigation.
	order []string
}

// Source is one markdown file read from disk.
type Source struct {
	File    string // docs-relative, slash-separated
	AbsPath string
	Meta    *frontmatter.Meta
	Body    []byte

	// Fingerprint is the mdfp content fingerprint over frontmatter and
	// body, consumed by incremental builds.
	Fingerprint string
}

// Files returns the docs-relative markdown paths in walk (lexical) order.
func (c *Collection) Files() []string { return c.order }

// assetExtensions lists the non-markdown files copied into the site.
var assetExtensions = map[string]struct{}{
	// Images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {}, ".bmp": {}, ".ico": {},
	// Documents
	".pdf": {},
	// Styling and scripts shipped with the docs
	".css": {}, ".js": {},
	// Video
	".mp4": {}, ".webm": {}, ".ogv": {},
	// Data files referenced from pages
	".csv": {}, ".json": {}, ".yaml": {}, ".yml": {}, ".xml": {}, ".txt": {},
}

// Collect walks docsDir and splits its contents into markdown sources and
// assets. Hidden files and directories are skipped. Files that are neither
// markdown nor a known asset type are ignored with a debug log.
func Collect(docsDir string) (*Collection, error) {
	abs, err := filepath.Abs(docsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve docs dir: %w", err)
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return nil, fmt.Errorf("docs dir not found or not a directory: %s", abs)
	}

	col := &Collection{DocsDir: abs, Sources: map[string]*Source{}}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != abs {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		switch {
		case isMarkdownFile(name):
			content, readErr := os.ReadFile(path) //nolint:gosec // path comes from the walk
			if readErr != nil {
				return fmt.Errorf("read %s: %w", rel, readErr)
			}
			meta, body, fmErr := frontmatter.Parse(content)
			if fmErr != nil {
				return fmt.Errorf("frontmatter in %s: %w", rel, fmErr)
			}
			fmRaw, _, _, _ := frontmatter.Split(content)
			col.Sources[rel] = &Source{
				File:        rel,
				AbsPath:     path,
				Meta:        meta,
				Body:        body,
				Fingerprint: mdfp.CalculateFingerprintFromParts(string(fmRaw), string(body)),
			}
			col.order = append(col.order, rel)
		case isAssetFile(name):
			col.Assets = append(col.Assets, Asset{File: rel, AbsPath: path})
		default:
			slog.Debug("Skipping unrecognized file", logfields.File(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Documentation collected",
		logfields.Path(abs),
		slog.Int("pages", len(col.Sources)),
		slog.Int("assets", len(col.Assets)))
	return col, nil
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}

// isAssetFile checks if a file is an asset (image, etc.)
func isAssetFile(filename string) bool {
	_, ok := assetExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}
