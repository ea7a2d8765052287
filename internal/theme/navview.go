package theme

import "github.com/mkpages/mkpages/internal/pages"

// NavView is the navigation tree flattened into template-ready form: hrefs
// already resolved relative to the current page, active trail marked.
type NavView struct {
	Title    string
	Href     string // empty for section nodes
	Active   bool   // node links the page being rendered
	Open     bool   // node is on the active page's trail
	Children []*NavView
}

// NavView materializes the nav tree for the current page. Themes iterate
// this instead of resolving URLs inside templates.
func (d *PageData) NavView() []*NavView {
	views := make([]*NavView, 0, len(d.Nav))
	for _, node := range d.Nav {
		views = append(views, d.navView(node))
	}
	return views
}

func (d *PageData) navView(node *pages.NavNode) *NavView {
	v := &NavView{Title: node.Title}
	if node.Page != nil {
		v.Href = d.RelPage(node.Page)
		v.Active = node.Page == d.Page
		v.Open = v.Active
	}
	for _, child := range node.Children {
		cv := d.navView(child)
		v.Children = append(v.Children, cv)
		if cv.Open || cv.Active {
			v.Open = true
		}
	}
	return v
}
