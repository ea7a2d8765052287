package linkcheck

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/pages"
)

func buildSite(t *testing.T, configDoc string, docs map[string]string) (*markdown.Renderer, *pages.Site) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range docs {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
	cfg, _, err := config.Parse(configDoc)
	require.NoError(t, err)

	renderer, err := markdown.Build(cfg.MarkdownExtensions)
	require.NoError(t, err)
	col, err := pages.Collect(dir)
	require.NoError(t, err)
	site, err := pages.Resolve(cfg, col)
	require.NoError(t, err)
	return renderer, site
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestSourceCheckCleanSite(t *testing.T) {
	renderer, site := buildSite(t, "site_name: x\n", map[string]string{
		"index.md":    "# Home\n\nSee the [guide](guide.md) or the [logo](img/logo.png).\n",
		"guide.md":    "# Guide\n\nBack [home](index.md).\n",
		"img/logo.png": "png",
	})

	res, external, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	assert.False(t, res.Broken(), "findings: %v", res.Findings)
	assert.Equal(t, 3, res.LinksChecked)
	assert.Empty(t, external)
}

func TestSourceCheckMissingPage(t *testing.T) {
	renderer, site := buildSite(t, "site_name: x\n", map[string]string{
		"index.md": "# Home\n\nSee [nothing](missing.md).\n",
	})

	res, _, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, "index.md", f.Page)
	assert.Equal(t, KindPage, f.Kind)
	assert.Equal(t, "missing.md", f.URL)
	assert.Equal(t, 3, f.Line)
}

func TestSourceCheckRelativeTraversal(t *testing.T) {
	renderer, site := buildSite(t, "site_name: x\n", map[string]string{
		"index.md":     "# Home\n",
		"api/usage.md": "# Usage\n\nSee [home](../index.md) and [bad](../../outside.md).\n",
	})

	res, _, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "api/usage.md", res.Findings[0].Page)
	assert.Contains(t, res.Findings[0].Reason, "escapes")
}

func TestSourceCheckAnchors(t *testing.T) {
	renderer, site := buildSite(t, `
site_name: x
markdown_extensions:
  - toc
`, map[string]string{
		"index.md": "# Home\n\n[ok](guide.md#setup) and [bad](guide.md#nope) and [self](#home)\n",
		"guide.md": "# Guide\n\n## Setup\n\nwords\n",
	})

	res, _, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, KindAnchor, res.Findings[0].Kind)
	assert.Equal(t, "guide.md#nope", res.Findings[0].URL)
}

func TestSourceCheckMissingAsset(t *testing.T) {
	renderer, site := buildSite(t, "site_name: x\n", map[string]string{
		"index.md": "# Home\n\n![missing](img/nope.png)\n",
	})

	res, _, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, KindAsset, res.Findings[0].Kind)
}

func TestSourceCheckCollectsExternal(t *testing.T) {
	renderer, site := buildSite(t, "site_name: x\n", map[string]string{
		"index.md": "# Home\n\n[site](https://example.com/) and <https://example.org>\n" +
			"and [mail](mailto:docs@example.com)\n",
	})

	res, external, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	assert.False(t, res.Broken())
	require.Len(t, external, 2)
	assert.Equal(t, "https://example.com/", external[0].URL)
	assert.Equal(t, "index.md", external[0].Page)
}

func TestSourceCheckSiteAbsoluteURL(t *testing.T) {
	renderer, site := buildSite(t, "site_name: x\n", map[string]string{
		"index.md": "# Home\n\n[guide](/guide/) and [gone](/nowhere/)\n",
		"guide.md": "# Guide\n",
	})

	res, _, err := NewSourceChecker(renderer, site, discard()).Check()
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "/nowhere/", res.Findings[0].URL)
}
