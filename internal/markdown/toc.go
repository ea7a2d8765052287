package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// permalinkTransformer appends an anchor link to every heading so readers
// can copy a direct link to a section. Runs after heading ids are assigned.
type permalinkTransformer struct {
	title string
}

func (t *permalinkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		id := headingID(h)
		if id == "" {
			return ast.WalkContinue, nil
		}
		link := ast.NewLink()
		link.Destination = []byte("#" + id)
		link.SetAttributeString("class", []byte("headerlink"))
		if t.title != "" {
			link.SetAttributeString("title", []byte(t.title))
		}
		link.AppendChild(link, ast.NewString([]byte("¶")))
		h.AppendChild(h, link)
		return ast.WalkSkipChildren, nil
	})
}
