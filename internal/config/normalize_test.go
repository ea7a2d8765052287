package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGFMAlias(t *testing.T) {
	cfg, warnings, err := Parse("site_name: x\nmarkdown_extensions:\n  - gfm\n")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	names := make([]string, 0, len(cfg.MarkdownExtensions))
	for _, e := range cfg.MarkdownExtensions {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{ExtTables, ExtStrikethrough, ExtTasklist, ExtAutolink}, names)
}

func TestNormalizeDuplicateExtensionFirstWins(t *testing.T) {
	cfg, warnings, err := Parse(`
site_name: x
markdown_extensions:
  - toc:
      permalink: true
  - toc:
      permalink: false
`)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "markdown_extensions", warnings[0].Field)

	require.Len(t, cfg.MarkdownExtensions, 1)
	assert.True(t, cfg.MarkdownExtensions[0].BoolOption("permalink", false))
}

func TestNormalizeUnknownOptionKeyWarns(t *testing.T) {
	_, warnings, err := Parse(`
site_name: x
markdown_extensions:
  - toc:
      permalnk: true
`)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "permalnk")
}

func TestNormalizeUnknownPaletteColorFallsBack(t *testing.T) {
	cfg, warnings, err := Parse(`
site_name: x
theme:
  palette:
    primary: vermilion
`)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "theme.palette.primary", warnings[0].Field)
	assert.Equal(t, DefaultPaletteColor, cfg.Theme.Palette.Primary)
}

func TestNormalizeDuplicateNavPathWarns(t *testing.T) {
	_, warnings, err := Parse(`
site_name: x
nav:
  - index.md
  - Also Home: index.md
`)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "nav", warnings[0].Field)
}

func TestNormalizeClampsNegativeConcurrency(t *testing.T) {
	cfg, warnings, err := Parse("site_name: x\nbuild:\n  concurrency: -2\n")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, cfg.Build.Concurrency)
}

func TestNormalizeCaseFoldsThemeName(t *testing.T) {
	cfg, _, err := Parse("site_name: x\ntheme:\n  name: Plain\n")
	require.NoError(t, err)
	assert.Equal(t, ThemePlain, cfg.Theme.Name)
}
