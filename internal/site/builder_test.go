package site

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkpages/mkpages/internal/config"
	serrors "github.com/mkpages/mkpages/internal/errors"
)

// writeProject lays out a project dir (config plus docs tree) and loads the
// configuration from it.
func writeProject(t *testing.T, configDoc string, docs map[string]string) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	cfgPath := filepath.Join(root, "mkpages.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configDoc), 0o644))
	for rel, content := range docs {
		target := filepath.Join(root, "docs", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
	cfg, _, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg, root
}

func newTestBuilder(t *testing.T, cfg *config.Config) *Builder {
	t.Helper()
	b, err := New(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return b
}

func TestBuildProducesSite(t *testing.T) {
	cfg, root := writeProject(t, `
site_name: Demo Docs
nav:
  - Home: index.md
  - Guide: guide.md
markdown_extensions:
  - toc
`, map[string]string{
		"index.md":     "# Demo Docs\n\nWelcome.\n",
		"guide.md":     "# Guide\n\nSome guidance.\n",
		"img/logo.png": "not really a png",
	})

	b := newTestBuilder(t, cfg)
	report, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 2, report.PagesRendered)
	assert.Equal(t, 0, report.PagesSkipped)
	assert.Equal(t, 1, report.AssetsCopied)

	siteDir := filepath.Join(root, "site")
	index, err := os.ReadFile(filepath.Join(siteDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Welcome.")
	assert.FileExists(t, filepath.Join(siteDir, "guide", "index.html"))
	assert.FileExists(t, filepath.Join(siteDir, "img", "logo.png"))
	assert.FileExists(t, filepath.Join(siteDir, "404.html"))
	assert.FileExists(t, filepath.Join(siteDir, "assets", "css", "slate.css"))
	// no site_url configured, so no sitemap
	assert.NoFileExists(t, filepath.Join(siteDir, "sitemap.xml"))
}

func TestBuildWritesManifest(t *testing.T) {
	cfg, root := writeProject(t, `
site_name: Demo
plugins:
  - search
`, map[string]string{
		"index.md": "# Demo\n",
	})

	b := newTestBuilder(t, cfg)
	report, err := b.Build(context.Background())
	require.NoError(t, err)

	m, err := LoadManifest(filepath.Join(root, "site"))
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, m.ID)
	assert.Equal(t, "slate", m.Theme)
	assert.Equal(t, 1, m.PageCount)
	assert.NotEmpty(t, m.ConfigHash)
	assert.NotEmpty(t, m.SiteHash)
	assert.Contains(t, m.Fingerprints, "index.md")
	require.Len(t, m.Plugins, 1)
	assert.Equal(t, "search", m.Plugins[0].Name)
	assert.Contains(t, m.Stages, StageRender)
}

func TestBuildSitemap(t *testing.T) {
	cfg, root := writeProject(t, `
site_name: Demo
site_url: https://docs.example.com/
nav:
  - index.md
  - guide.md
`, map[string]string{
		"index.md": "# Home\n",
		"guide.md": "# Guide\n",
	})

	b := newTestBuilder(t, cfg)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(root, "site", "sitemap.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<loc>https://docs.example.com/</loc>")
	assert.Contains(t, string(raw), "<loc>https://docs.example.com/guide/</loc>")
	assert.Contains(t, string(raw), "http://www.sitemaps.org/schemas/sitemap/0.9")
}

func TestIncrementalSkipsUnchangedPages(t *testing.T) {
	cfg, _ := writeProject(t, `
site_name: Demo
build:
  clean: false
  incremental: true
nav:
  - index.md
  - guide.md
`, map[string]string{
		"index.md": "# Home\n",
		"guide.md": "# Guide\n",
	})

	b := newTestBuilder(t, cfg)
	first, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.PagesRendered)

	second, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.PagesRendered)
	assert.Equal(t, 2, second.PagesSkipped)
}

func TestIncrementalWithCleanWarns(t *testing.T) {
	cfg, _ := writeProject(t, `
site_name: Demo
build:
  incremental: true
nav:
  - index.md
`, map[string]string{
		"index.md": "# Home\n",
	})

	var logs bytes.Buffer
	b, err := New(cfg, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	_, err = b.Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "incremental build has no effect")
}

func TestIncrementalRerendersChangedPage(t *testing.T) {
	cfg, root := writeProject(t, `
site_name: Demo
build:
  clean: false
  incremental: true
nav:
  - index.md
  - guide.md
`, map[string]string{
		"index.md": "# Home\n",
		"guide.md": "# Guide\n",
	})

	b := newTestBuilder(t, cfg)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	guide := filepath.Join(root, "docs", "guide.md")
	require.NoError(t, os.WriteFile(guide, []byte("# Guide\n\nUpdated.\n"), 0o644))

	second, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.PagesRendered)
	assert.Equal(t, 1, second.PagesSkipped)

	out, err := os.ReadFile(filepath.Join(root, "site", "guide", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Updated.")
}

func TestCleanRefusesForeignDirectory(t *testing.T) {
	cfg, root := writeProject(t, "site_name: Demo\n", map[string]string{
		"index.md": "# Home\n",
	})
	siteDir := filepath.Join(root, "site")
	require.NoError(t, os.MkdirAll(siteDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "precious.txt"), []byte("keep"), 0o644))

	b := newTestBuilder(t, cfg)
	report, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryFileSystem))
	assert.FileExists(t, filepath.Join(siteDir, "precious.txt"))
}

func TestCleanReplacesPreviousOutput(t *testing.T) {
	cfg, root := writeProject(t, "site_name: Demo\n", map[string]string{
		"index.md": "# Home\n",
	})

	b := newTestBuilder(t, cfg)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	stale := filepath.Join(root, "site", "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err = b.Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestStrictModeFailsOnWarnings(t *testing.T) {
	cfg, _ := writeProject(t, `
site_name: Demo
strict: true
theme:
  name: slate
  logo: img/missing.png
`, map[string]string{
		"index.md": "# Home\n",
	})

	b := newTestBuilder(t, cfg)
	report, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NotEmpty(t, report.Warnings)
}

func TestMissingThemeFileWarnsWithoutStrict(t *testing.T) {
	cfg, _ := writeProject(t, `
site_name: Demo
theme:
  name: slate
  favicon: img/missing.ico
`, map[string]string{
		"index.md": "# Home\n",
	})

	b := newTestBuilder(t, cfg)
	report, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "img/missing.ico")
}

func TestBuildCanceledContext(t *testing.T) {
	cfg, _ := writeProject(t, "site_name: Demo\n", map[string]string{
		"index.md": "# Home\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBuilder(t, cfg)
	report, err := b.Build(ctx)
	require.Error(t, err)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestSearchIndexWritten(t *testing.T) {
	cfg, root := writeProject(t, `
site_name: Demo
plugins:
  - search
`, map[string]string{
		"index.md": "# Home\n\nFindable text.\n",
	})

	b := newTestBuilder(t, cfg)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(root, "site", "search", "search_index.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Findable text.")
}

func TestPaletteAndHighlightAssets(t *testing.T) {
	cfg, root := writeProject(t, `
site_name: Demo
theme:
  name: slate
  palette:
    primary: teal
markdown_extensions:
  - highlight
`, map[string]string{
		"index.md": "# Home\n\n```go\npackage main\n```\n",
	})

	b := newTestBuilder(t, cfg)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	siteDir := filepath.Join(root, "site")
	palette, err := os.ReadFile(filepath.Join(siteDir, "assets", "palette.css"))
	require.NoError(t, err)
	assert.Contains(t, string(palette), "--mk-primary")
	assert.FileExists(t, filepath.Join(siteDir, "assets", "highlight.css"))

	index, err := os.ReadFile(filepath.Join(siteDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "assets/palette.css")
	assert.Contains(t, string(index), "assets/highlight.css")
}

func TestComputeSiteHashChangesWithNav(t *testing.T) {
	cfg, _ := writeProject(t, "site_name: Demo\n", map[string]string{
		"index.md": "# Home\n",
		"extra.md": "# Extra\n",
	})
	b := newTestBuilder(t, cfg)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	m1, err := LoadManifest(b.SiteDir())
	require.NoError(t, err)

	// adding a page changes the site hash
	require.NoError(t, os.WriteFile(
		filepath.Join(b.DocsDir(), "more.md"), []byte("# More\n"), 0o644))
	_, err = b.Build(context.Background())
	require.NoError(t, err)
	m2, err := LoadManifest(b.SiteDir())
	require.NoError(t, err)
	assert.NotEqual(t, m1.SiteHash, m2.SiteHash)
}
