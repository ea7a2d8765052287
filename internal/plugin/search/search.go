// Package search builds the client-side search index consumed by themes
// with a search box.
package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/plugin"
)

// IndexPath is where the index lands relative to the site dir.
const IndexPath = "search/search_index.json"

const version = "v1.2.0"

func init() {
	plugin.Register(func() plugin.Plugin { return &Search{} })
}

// Search collects page text during rendering and writes the index after
// the build.
type Search struct {
	plugin.Hooks

	minSearchLength int
	lang            string
	sections        bool

	mu   sync.Mutex
	docs []document
}

type document struct {
	Location string `json:"location"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Section  string `json:"section,omitempty"`
}

type index struct {
	Config indexConfig `json:"config"`
	Docs   []document  `json:"docs"`
}

type indexConfig struct {
	MinSearchLength int    `json:"min_search_length"`
	Lang            string `json:"lang"`
}

func (s *Search) Name() string    { return config.PluginSearch }
func (s *Search) Version() string { return version }

func (s *Search) OnConfig(cfg *config.Config, entry config.Entry) error {
	s.minSearchLength = entry.IntOption("min_search_length", 3)
	if s.minSearchLength < 1 {
		return fmt.Errorf("min_search_length must be positive, got %d", s.minSearchLength)
	}
	s.lang = entry.StringOption("lang", "en")
	for _, ext := range cfg.MarkdownExtensions {
		if ext.Name == config.ExtTOC {
			s.sections = true
		}
	}
	return nil
}

// OnPageRendered runs concurrently under the render pool.
func (s *Search) OnPageRendered(ctx *plugin.Context, page *pages.Page) error {
	if page.Meta != nil && page.Meta.Hidden("search") {
		return nil
	}

	location := strings.TrimPrefix(page.URL, "/")
	docs := []document{{
		Location: location,
		Title:    page.Title,
		Text:     page.PlainText,
	}}
	if s.sections {
		for _, h := range page.Headings {
			if h.Level < 2 {
				continue
			}
			docs = append(docs, document{
				Location: location + "#" + h.ID,
				Title:    h.Text,
				Section:  page.Title,
			})
		}
	}

	s.mu.Lock()
	s.docs = append(s.docs, docs...)
	s.mu.Unlock()
	return nil
}

func (s *Search) OnPostBuild(ctx *plugin.Context, site *pages.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Rendering order is nondeterministic under the pool; restore the
	// resolved page order so the index is reproducible.
	ordered := make([]document, 0, len(s.docs))
	byLocation := make(map[string][]document, len(s.docs))
	for _, d := range s.docs {
		key := strings.SplitN(d.Location, "#", 2)[0]
		byLocation[key] = append(byLocation[key], d)
	}
	for _, p := range site.Pages {
		key := strings.TrimPrefix(p.URL, "/")
		ordered = append(ordered, byLocation[key]...)
	}

	idx := index{
		Config: indexConfig{MinSearchLength: s.minSearchLength, Lang: s.lang},
		Docs:   ordered,
	}

	var data []byte
	var err error
	if ctx.Config.Build.MinifyJSON {
		data, err = json.Marshal(idx)
	} else {
		data, err = json.MarshalIndent(idx, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding search index: %w", err)
	}

	ctx.Logger.Info("search index written",
		logfields.Count(len(ordered)), logfields.Path(IndexPath))
	return ctx.WriteFile(IndexPath, data)
}
