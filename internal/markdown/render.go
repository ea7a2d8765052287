package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry in a page's outline, in document order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Result is the outcome of rendering one markdown document.
type Result struct {
	HTML      template.HTML
	Headings  []Heading
	Title     string // text of the first h1, empty if none
	PlainText string // tag-free text for search indexing
}

// Renderer converts markdown documents using the configured extension set.
// It is safe for concurrent use; per-document state lives in the parser
// context created by each Convert call.
type Renderer struct {
	md        goldmark.Markdown
	toc       tocConfig
	highlight *highlightConfig
}

// HighlightEnabled reports whether chroma token highlighting is active and
// a highlight.css will be emitted.
func (r *Renderer) HighlightEnabled() bool {
	return r.highlight != nil && r.highlight.chroma
}

// TOCDepth reports the deepest heading level the outline should include.
func (r *Renderer) TOCDepth() int {
	if r.toc.enabled {
		return r.toc.depth
	}
	return 0
}

// Convert renders src and collects the heading outline and plain text.
func (r *Renderer) Convert(src []byte) (*Result, error) {
	ctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	res := &Result{HTML: template.HTML(buf.String())}
	maxLevel := r.toc.depth
	if !r.toc.enabled {
		maxLevel = 6
	}

	var plain strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.Heading); ok {
				plain.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			text := nodeText(node, src)
			if node.Level == 1 && res.Title == "" {
				res.Title = text
			}
			if node.Level <= maxLevel {
				res.Headings = append(res.Headings, Heading{
					Level: node.Level,
					Text:  text,
					ID:    headingID(node),
				})
			}
		case *ast.Text:
			plain.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				plain.WriteByte(' ')
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				plain.Write(line.Value(src))
			}
			plain.WriteByte(' ')
		case *ast.Paragraph, *ast.ListItem:
			// Fall through to children; a trailing space keeps blocks
			// from running together in the index text.
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking document: %w", err)
	}

	res.PlainText = strings.Join(strings.Fields(plain.String()), " ")
	return res, nil
}

// headingID returns the id attribute the parser assigned to a heading.
func headingID(h *ast.Heading) string {
	if id, ok := h.AttributeString("id"); ok {
		if b, ok := id.([]byte); ok {
			return string(b)
		}
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// nodeText collects the literal text under a node, skipping markup.
func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// slugIDs generates heading ids from the heading text, deduplicating
// repeats with a numeric suffix the way documentation anchors expect.
type slugIDs struct {
	used map[string]bool
}

func newSlugIDs() *slugIDs {
	return &slugIDs{used: map[string]bool{}}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	slug := Slugify(string(value))
	if slug == "" {
		slug = "section"
	}
	candidate := slug
	for i := 1; s.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", slug, i)
	}
	s.used[candidate] = true
	return []byte(candidate)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}
