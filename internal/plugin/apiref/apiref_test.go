package apiref

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/plugin"
)

const sampleSpec = `openapi: 3.0.3
info:
  title: REDCap API
  version: "1.0"
  description: Record and metadata endpoints.
paths:
  /records:
    get:
      operationId: exportRecords
      tags: [records]
      summary: Export records
      parameters:
        - name: format
          in: query
          required: true
          description: Response format.
          schema:
            type: string
      responses:
        "200":
          description: Records exported.
          content:
            application/json:
              schema:
                type: array
                items:
                  type: object
                  properties:
                    record_id:
                      type: string
    post:
      operationId: importRecords
      summary: Import records
      responses:
        "200":
          description: Import count.
`

func writeSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSpec), 0o644))
	return path
}

func configured(t *testing.T, specPath string) *APIRef {
	t.Helper()
	a := &APIRef{}
	entry := config.Entry{
		Name:    config.PluginAPIRef,
		Options: map[string]any{"spec": specPath},
	}
	require.NoError(t, a.OnConfig(&config.Config{}, entry))
	return a
}

func TestOnConfigMissingSpec(t *testing.T) {
	a := &APIRef{}
	entry := config.Entry{
		Name:    config.PluginAPIRef,
		Options: map[string]any{"spec": "/does/not/exist.yml"},
	}
	err := a.OnConfig(&config.Config{}, entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/does/not/exist.yml")
}

func TestOnConfigInvalidSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yml")
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: x\n"), 0o644))

	a := &APIRef{}
	entry := config.Entry{Name: config.PluginAPIRef, Options: map[string]any{"spec": path}}
	assert.Error(t, a.OnConfig(&config.Config{}, entry))
}

func TestGeneratesTagAndOverviewPages(t *testing.T) {
	a := configured(t, writeSpec(t))

	cfg := &config.Config{}
	site := &pages.Site{
		Pages: []*pages.Page{{File: "index.md", URL: "/", Title: "Home", InNav: true}},
	}
	ctx := &plugin.Context{
		Context: context.Background(),
		Logger:  slog.New(slog.DiscardHandler),
		Config:  cfg,
	}

	require.NoError(t, a.OnPagesResolved(ctx, site))

	// home + overview + records tag + default tag (untagged post)
	require.Len(t, site.Pages, 4)

	overview := site.PageByFile("api/index.md")
	require.NotNil(t, overview)
	assert.True(t, overview.Generated)
	assert.Equal(t, "REDCap API", overview.Title)
	assert.Contains(t, string(overview.Body), "Version `1.0`")
	assert.Contains(t, string(overview.Body), "(records.md)")

	records := site.PageByFile("api/records.md")
	require.NotNil(t, records)
	body := string(records.Body)
	assert.Contains(t, body, "## GET /records")
	assert.Contains(t, body, "`format` (query, required)")
	assert.Contains(t, body, "```json")
	assert.Contains(t, body, `"record_id"`)

	// untagged operation grouped under the default tag
	def := site.PageByFile("api/default.md")
	require.NotNil(t, def)
	assert.Contains(t, string(def.Body), "## POST /records")
}

func TestInjectedIntoNavAfterExplicitEntries(t *testing.T) {
	a := configured(t, writeSpec(t))

	home := &pages.Page{File: "index.md", URL: "/", Title: "Home", InNav: true}
	site := &pages.Site{
		Pages: []*pages.Page{home},
		Nav:   []*pages.NavNode{{Title: "Home", Page: home}},
	}
	ctx := &plugin.Context{
		Context: context.Background(),
		Logger:  slog.New(slog.DiscardHandler),
		Config:  &config.Config{},
	}
	require.NoError(t, a.OnPagesResolved(ctx, site))

	require.Len(t, site.Nav, 2)
	section := site.Nav[1]
	assert.True(t, section.IsSection())
	require.NotEmpty(t, section.Children)
	assert.Equal(t, "api/index.md", section.Children[0].Page.File)

	// prev/next chain spans into the generated pages
	assert.NotNil(t, home.Next)
	assert.Equal(t, "api/index.md", home.Next.File)
}
