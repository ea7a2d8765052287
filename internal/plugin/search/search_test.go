package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/frontmatter"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/plugin"
)

func testContext(cfg *config.Config, files map[string][]byte) *plugin.Context {
	return &plugin.Context{
		Context: context.Background(),
		Logger:  slog.New(slog.DiscardHandler),
		Config:  cfg,
		WriteFile: func(rel string, data []byte) error {
			files[rel] = data
			return nil
		},
	}
}

func configWithTOC() *config.Config {
	return &config.Config{
		MarkdownExtensions: []config.Entry{{Name: config.ExtTOC}},
	}
}

func TestIndexContainsPagesAndSections(t *testing.T) {
	s := &Search{}
	cfg := configWithTOC()
	require.NoError(t, s.OnConfig(cfg, config.Entry{Name: config.PluginSearch}))

	home := &pages.Page{URL: "/", Title: "Home", PlainText: "Welcome to the docs"}
	guide := &pages.Page{
		URL: "/guide/", Title: "Guide", PlainText: "Install and use",
		Headings: []markdown.Heading{
			{Level: 1, Text: "Guide", ID: "guide"},
			{Level: 2, Text: "Install", ID: "install"},
		},
	}
	files := map[string][]byte{}
	ctx := testContext(cfg, files)

	// reversed order on purpose; the index must follow site order
	require.NoError(t, s.OnPageRendered(ctx, guide))
	require.NoError(t, s.OnPageRendered(ctx, home))

	site := &pages.Site{Pages: []*pages.Page{home, guide}}
	require.NoError(t, s.OnPostBuild(ctx, site))

	var idx struct {
		Config struct {
			MinSearchLength int    `json:"min_search_length"`
			Lang            string `json:"lang"`
		} `json:"config"`
		Docs []struct {
			Location string `json:"location"`
			Title    string `json:"title"`
			Section  string `json:"section"`
		} `json:"docs"`
	}
	require.NoError(t, json.Unmarshal(files[IndexPath], &idx))

	assert.Equal(t, 3, idx.Config.MinSearchLength)
	assert.Equal(t, "en", idx.Config.Lang)

	require.Len(t, idx.Docs, 3)
	assert.Equal(t, "", idx.Docs[0].Location)
	assert.Equal(t, "Home", idx.Docs[0].Title)
	assert.Equal(t, "guide/", idx.Docs[1].Location)
	assert.Equal(t, "guide/#install", idx.Docs[2].Location)
	assert.Equal(t, "Guide", idx.Docs[2].Section)
}

func TestNoSectionsWithoutTOC(t *testing.T) {
	s := &Search{}
	cfg := &config.Config{}
	require.NoError(t, s.OnConfig(cfg, config.Entry{Name: config.PluginSearch}))

	page := &pages.Page{
		URL: "/guide/", Title: "Guide",
		Headings: []markdown.Heading{{Level: 2, Text: "Install", ID: "install"}},
	}
	files := map[string][]byte{}
	ctx := testContext(cfg, files)
	require.NoError(t, s.OnPageRendered(ctx, page))
	require.NoError(t, s.OnPostBuild(ctx, &pages.Site{Pages: []*pages.Page{page}}))

	assert.NotContains(t, string(files[IndexPath]), "#install")
}

func TestHiddenPagesSkipped(t *testing.T) {
	s := &Search{}
	cfg := &config.Config{}
	require.NoError(t, s.OnConfig(cfg, config.Entry{Name: config.PluginSearch}))

	page := &pages.Page{
		URL: "/secret/", Title: "Secret",
		Meta: &frontmatter.Meta{Hide: []string{"search"}},
	}
	files := map[string][]byte{}
	ctx := testContext(cfg, files)
	require.NoError(t, s.OnPageRendered(ctx, page))
	require.NoError(t, s.OnPostBuild(ctx, &pages.Site{Pages: []*pages.Page{page}}))

	assert.NotContains(t, string(files[IndexPath]), "Secret")
}

func TestOptions(t *testing.T) {
	s := &Search{}
	entry := config.Entry{
		Name:    config.PluginSearch,
		Options: map[string]any{"min_search_length": 2, "lang": "de"},
	}
	require.NoError(t, s.OnConfig(&config.Config{}, entry))
	assert.Equal(t, 2, s.minSearchLength)
	assert.Equal(t, "de", s.lang)

	bad := config.Entry{Name: config.PluginSearch, Options: map[string]any{"min_search_length": 0}}
	assert.Error(t, s.OnConfig(&config.Config{}, bad))
}

func TestMinifiedIndex(t *testing.T) {
	s := &Search{}
	cfg := &config.Config{Build: config.BuildConfig{MinifyJSON: true}}
	require.NoError(t, s.OnConfig(cfg, config.Entry{Name: config.PluginSearch}))

	page := &pages.Page{URL: "/", Title: "Home"}
	files := map[string][]byte{}
	ctx := testContext(cfg, files)
	require.NoError(t, s.OnPageRendered(ctx, page))
	require.NoError(t, s.OnPostBuild(ctx, &pages.Site{Pages: []*pages.Page{page}}))

	assert.NotContains(t, string(files[IndexPath]), "\n  ")
}
