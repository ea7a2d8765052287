package markdown

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer replaces the default fenced code block output. With
// chroma enabled it emits token-classified spans styled by highlight.css;
// without it, fenced blocks still honor the info string's title attribute.
type codeBlockRenderer struct {
	cfg highlightConfig
}

func newCodeBlockRenderer(cfg highlightConfig) *codeBlockRenderer {
	return &codeBlockRenderer{cfg: cfg}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.render)
}

func (r *codeBlockRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var sb strings.Builder
	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		sb.Write(line.Value(source))
	}
	code := sb.String()
	language := string(n.Language(source))
	title := infoTitle(n, source)

	if title != "" {
		_, _ = w.WriteString(`<div class="highlight-titled"><span class="filename">`)
		_, _ = w.Write(util.EscapeHTML([]byte(title)))
		_, _ = w.WriteString("</span>\n")
	}

	if r.cfg.chroma {
		if err := r.highlighted(w, code, language, blockAnchorSeed(n)); err == nil {
			if title != "" {
				_, _ = w.WriteString("</div>\n")
			}
			return ast.WalkContinue, nil
		}
	}

	r.plain(w, code, language)
	if title != "" {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

// highlighted writes a chroma-tokenized block. Line anchors are prefixed
// with the block's source line so ids stay unique within a page without
// shared render state.
func (r *codeBlockRenderer) highlighted(w io.Writer, code, language string, anchorSeed int) error {
	lexer := lexers.Get(language)
	if lexer == nil && r.cfg.guessLang {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	linenums := r.cfg.linenums || r.cfg.anchorLinenums
	opts := []chromahtml.Option{
		chromahtml.WithClasses(true),
		chromahtml.WithLineNumbers(linenums),
	}
	if r.cfg.anchorLinenums {
		opts = append(opts,
			chromahtml.WithLinkableLineNumbers(true, fmt.Sprintf("__codelineno-%d-", anchorSeed)),
		)
	}
	formatter := chromahtml.New(opts...)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return formatter.Format(w, highlightStyle(r.cfg.style), iterator)
}

// plain writes an unstyled block, used when chroma is disabled or fails.
func (r *codeBlockRenderer) plain(w util.BufWriter, code, language string) {
	_, _ = w.WriteString("<pre><code")
	if language != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(language)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.Write(util.EscapeHTML([]byte(code)))
	_, _ = w.WriteString("</code></pre>\n")
}

// WriteHighlightCSS emits the stylesheet matching the configured chroma
// style. Returns false when token highlighting is not enabled.
func (r *Renderer) WriteHighlightCSS(w io.Writer) (bool, error) {
	if r.highlight == nil || !r.highlight.chroma {
		return false, nil
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(w, highlightStyle(r.highlight.style)); err != nil {
		return false, fmt.Errorf("writing highlight css: %w", err)
	}
	return true, nil
}

func highlightStyle(name string) *chroma.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}

// blockAnchorSeed derives a per-block discriminator from the block's
// position in the source file.
func blockAnchorSeed(n *ast.FencedCodeBlock) int {
	if n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	return 0
}

// infoTitle extracts a title="..." attribute from the fence info string.
func infoTitle(n *ast.FencedCodeBlock, source []byte) string {
	if n.Info == nil {
		return ""
	}
	info := string(n.Info.Segment.Value(source))
	idx := strings.Index(info, `title="`)
	if idx < 0 {
		return ""
	}
	rest := info[idx+len(`title="`):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}
