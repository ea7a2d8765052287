// Package markdown assembles a goldmark renderer from the configured
// extension list and exposes the per-page render results (HTML, heading
// outline, title, plain text) the rest of the build consumes.
package markdown

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/mkpages/mkpages/internal/config"
)

// tocConfig carries the toc extension options.
type tocConfig struct {
	enabled        bool
	permalink      bool
	permalinkTitle string
	depth          int
}

// highlightConfig carries the highlight/superfences options.
type highlightConfig struct {
	chroma         bool // false when only superfences is enabled
	style          string
	linenums       bool
	anchorLinenums bool
	guessLang      bool
}

// Build assembles a Renderer from the configured extension entries, applied
// in config order. Entry names are assumed canonical (config.Normalize ran);
// an unknown name here is a programming error, not user input.
func Build(entries []config.Entry) (*Renderer, error) {
	r := &Renderer{toc: tocConfig{depth: 6}}

	gmOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	var exts []goldmark.Extender

	for _, e := range entries {
		switch e.Name {
		case config.ExtTables:
			exts = append(exts, extension.Table)
		case config.ExtStrikethrough:
			exts = append(exts, extension.Strikethrough)
		case config.ExtTasklist:
			exts = append(exts, extension.TaskList)
		case config.ExtAutolink:
			exts = append(exts, extension.Linkify)
		case config.ExtFootnotes:
			exts = append(exts, extension.Footnote)
		case config.ExtDefList:
			exts = append(exts, extension.DefinitionList)
		case config.ExtTypographer:
			exts = append(exts, extension.Typographer)
		case config.ExtAttrList:
			gmOptions = append(gmOptions, goldmark.WithParserOptions(parser.WithAttribute()))
		case config.ExtAdmonition:
			exts = append(exts, &admonitionExtension{})
		case config.ExtTOC:
			r.toc = tocConfig{
				enabled:        true,
				permalink:      e.BoolOption("permalink", false),
				permalinkTitle: e.StringOption("permalink_title", "Permanent link"),
				depth:          e.IntOption("depth", 6),
			}
		case config.ExtHighlight:
			r.highlight = &highlightConfig{
				chroma:         true,
				style:          e.StringOption("style", "github"),
				linenums:       e.BoolOption("linenums", false),
				anchorLinenums: e.BoolOption("anchor_linenums", false),
				guessLang:      e.BoolOption("guess_lang", true),
			}
		case config.ExtSuperfences:
			if r.highlight == nil {
				r.highlight = &highlightConfig{chroma: false}
			}
		default:
			return nil, fmt.Errorf("unknown markdown extension %q", e.Name)
		}
	}

	if r.toc.enabled && r.toc.permalink {
		gmOptions = append(gmOptions, goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(&permalinkTransformer{
				title: r.toc.permalinkTitle,
			}, 900)),
		))
	}
	if r.highlight != nil {
		gmOptions = append(gmOptions, goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(newCodeBlockRenderer(*r.highlight), 200)),
		))
	}

	// Raw HTML in markdown passes through; docs authors are trusted input.
	gmOptions = append(gmOptions,
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)

	r.md = goldmark.New(gmOptions...)
	return r, nil
}
