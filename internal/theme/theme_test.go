package theme

import (
	"bytes"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/pages"
)

func pageData(url string) *PageData {
	return &PageData{
		Site: &SiteData{Name: "Test"},
		Page: &pages.Page{URL: url},
	}
}

func TestRelFromRoot(t *testing.T) {
	d := pageData("/")
	assert.Equal(t, "assets/theme.css", d.Rel("assets/theme.css"))
	assert.Equal(t, "guide/", d.Rel("/guide/"))
	assert.Equal(t, "./", d.Rel("/"))
}

func TestRelFromNestedPage(t *testing.T) {
	d := pageData("/api/records/")
	assert.Equal(t, "../../assets/theme.css", d.Rel("assets/theme.css"))
	assert.Equal(t, "../../guide/", d.Rel("/guide/"))
	assert.Equal(t, "../../", d.Rel("/"))
}

func TestRelFromFlatFile(t *testing.T) {
	// use_directory_urls: false keeps pages as sibling .html files
	d := pageData("/about.html")
	assert.Equal(t, "assets/theme.css", d.Rel("assets/theme.css"))

	nested := pageData("/api/overview.html")
	assert.Equal(t, "../assets/theme.css", nested.Rel("assets/theme.css"))
}

func TestRelPage(t *testing.T) {
	d := pageData("/api/records/")
	assert.Equal(t, "../../quickstart/", d.RelPage(&pages.Page{URL: "/quickstart/"}))
	assert.Empty(t, d.RelPage(nil))
}

func TestNavViewMarksActiveTrail(t *testing.T) {
	current := &pages.Page{URL: "/api/records/", Title: "Records"}
	other := &pages.Page{URL: "/quickstart/", Title: "Quickstart"}
	d := &PageData{
		Site: &SiteData{},
		Page: current,
		Nav: []*pages.NavNode{
			{Title: "Quickstart", Page: other},
			{Title: "API", Children: []*pages.NavNode{
				{Title: "Records", Page: current},
			}},
		},
	}

	views := d.NavView()
	require.Len(t, views, 2)

	assert.False(t, views[0].Active)
	assert.False(t, views[0].Open)
	assert.Equal(t, "../../quickstart/", views[0].Href)

	section := views[1]
	assert.Empty(t, section.Href)
	assert.True(t, section.Open, "ancestor of the active page must be open")
	require.Len(t, section.Children, 1)
	assert.True(t, section.Children[0].Active)
}

func TestWritePaletteCSS(t *testing.T) {
	var buf bytes.Buffer
	err := WritePaletteCSS(&buf, config.PaletteConfig{Primary: "teal", Accent: "amber"})
	require.NoError(t, err)

	css := buf.String()
	assert.Contains(t, css, "--mk-primary: #009688")
	assert.Contains(t, css, "--mk-accent: #ffb300")
}

func TestWritePaletteCSSUnknownFallsBack(t *testing.T) {
	var buf bytes.Buffer
	err := WritePaletteCSS(&buf, config.PaletteConfig{Primary: "chartreuse"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), config.PaletteColors[config.DefaultPaletteColor].Main)
}

type stubTheme struct{ name string }

func (s *stubTheme) Name() string                      { return s.name }
func (s *stubTheme) Render(io.Writer, *PageData) error { return nil }
func (s *stubTheme) Static() fs.FS                     { return nil }
func (s *stubTheme) Features() Capabilities            { return Capabilities{} }

func TestRegistry(t *testing.T) {
	Register(&stubTheme{name: "stub-a"})

	got, err := Get("stub-a")
	require.NoError(t, err)
	assert.Equal(t, "stub-a", got.Name())

	_, err = Get("no-such-theme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub-a")

	assert.Panics(t, func() { Register(&stubTheme{name: "stub-a"}) })
	assert.Panics(t, func() { Register(nil) })
}
