package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitScaffoldLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mkpages.yml")
	require.NoError(t, Init(path, false, false))

	cfg, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "My Project", cfg.SiteName)

	// Every scaffolded nav page exists on disk.
	for _, p := range cfg.Nav.Paths() {
		_, err := os.Stat(filepath.Join(dir, cfg.DocsDir, filepath.FromSlash(p)))
		assert.NoError(t, err, "nav page %s missing", p)
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mkpages.yml")
	require.NoError(t, os.WriteFile(path, []byte("site_name: keep\n"), 0o644))

	err := Init(path, false, false)
	require.Error(t, err)

	content, _ := os.ReadFile(path)
	assert.Equal(t, "site_name: keep\n", string(content))

	require.NoError(t, Init(path, true, true))
	content, _ = os.ReadFile(path)
	assert.Contains(t, string(content), "My Project")
}

func TestInitBareWritesNoDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(filepath.Join(dir, "mkpages.yml"), false, true))
	_, err := os.Stat(filepath.Join(dir, "docs"))
	assert.True(t, os.IsNotExist(err))
}
