package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Admonition is a callout block: a marker line naming the kind and an
// optional quoted title, followed by a four-space indented body.
//
//	!!! warning "Read this first"
//	    Body content, regular markdown.
type Admonition struct {
	ast.BaseBlock
	Kind_ []byte // note, warning, tip, ...
	Title []byte // nil means default title, empty means suppressed
}

var KindAdmonition = ast.NewNodeKind("Admonition")

func (n *Admonition) Kind() ast.NodeKind { return KindAdmonition }

func (n *Admonition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Kind":  string(n.Kind_),
		"Title": string(n.Title),
	}, nil)
}

// marker line: !!! kind, optionally followed by a double-quoted title
var admonitionPattern = regexp.MustCompile(`^!!!\s+([\w-]+)(?:\s+"([^"]*)")?\s*$`)

type admonitionParser struct{}

func (p *admonitionParser) Trigger() []byte { return []byte{'!'} }

func (p *admonitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	m := admonitionPattern.FindSubmatch(util.TrimRightSpace(line))
	if m == nil {
		return nil, parser.NoChildren
	}
	node := &Admonition{Kind_: m[1]}
	if m[2] != nil {
		node.Title = m[2]
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *admonitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Continue | parser.HasChildren
	}
	pos, padding := util.IndentPosition(line, reader.LineOffset(), 4)
	if pos < 0 {
		return parser.Close
	}
	reader.AdvanceAndSetPadding(pos, padding)
	return parser.Continue | parser.HasChildren
}

func (p *admonitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *admonitionParser) CanInterruptParagraph() bool { return true }

func (p *admonitionParser) CanAcceptIndentedLine() bool { return false }

type admonitionRenderer struct{}

func (r *admonitionRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.render)
}

func (r *admonitionRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Admonition)
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="admonition `)
	_, _ = w.Write(util.EscapeHTML(n.Kind_))
	_, _ = w.WriteString("\">\n")

	title := admonitionTitle(n)
	if title != "" {
		_, _ = w.WriteString(`<p class="admonition-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(title)))
		_, _ = w.WriteString("</p>\n")
	}
	return ast.WalkContinue, nil
}

// admonitionTitle resolves the display title: explicit quoted title wins,
// a quoted empty string suppresses it, otherwise the kind is capitalized.
func admonitionTitle(n *Admonition) string {
	if n.Title != nil {
		return string(n.Title)
	}
	kind := string(n.Kind_)
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

type admonitionExtension struct{}

func (e *admonitionExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&admonitionParser{}, 799),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&admonitionRenderer{}, 500),
	))
}
