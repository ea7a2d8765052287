package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Link is a reference found in a markdown source document.
type Link struct {
	URL   string // destination as written
	Text  string // link text or image alt text
	Image bool   // true for image references
	Line  int    // 1-based source line of the enclosing block
}

// ExtractLinks parses src and returns every link and image destination in
// document order, with approximate source line numbers for diagnostics.
func (r *Renderer) ExtractLinks(src []byte) ([]Link, error) {
	doc := r.md.Parser().Parse(text.NewReader(src))

	var links []Link
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			links = append(links, Link{
				URL:  string(node.Destination),
				Text: nodeText(node, src),
				Line: nodeLine(n, src),
			})
		case *ast.Image:
			links = append(links, Link{
				URL:   string(node.Destination),
				Text:  nodeText(node, src),
				Image: true,
				Line:  nodeLine(n, src),
			})
		case *ast.AutoLink:
			links = append(links, Link{
				URL:  string(node.URL(src)),
				Text: string(node.Label(src)),
				Line: nodeLine(n, src),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// nodeLine returns the 1-based line of a node's enclosing block by counting
// newlines up to the block's first segment. Inline nodes carry no position
// of their own, so this is block granularity.
func nodeLine(n ast.Node, src []byte) int {
	block := n
	for block != nil && block.Type() != ast.TypeBlock {
		block = block.Parent()
	}
	if block == nil || block.Lines().Len() == 0 {
		return 0
	}
	start := block.Lines().At(0).Start
	line := 1
	for _, b := range src[:start] {
		if b == '\n' {
			line++
		}
	}
	return line
}
