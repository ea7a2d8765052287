package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Nav is the ordered navigation tree. Order is load-bearing and preserved
// exactly as written; nesting depth is unbounded.
type Nav []NavItem

// NavItem is one navigation entry. Exactly one of Path or Children is set.
// The YAML forms are:
//
//	- page.md                  (bare scalar; title derived from content)
//	- Title: page.md           (explicit title)
//	- Section:                 (nested entries)
//	    - other.md
type NavItem struct {
	Title    string
	Path     string
	Children Nav
}

// IsSection reports whether the item groups nested entries instead of
// pointing at a page.
func (n NavItem) IsSection() bool { return len(n.Children) > 0 }

// UnmarshalYAML decodes the three accepted entry forms.
func (n *NavItem) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var path string
		if err := node.Decode(&path); err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("line %d: nav entry must not be empty", node.Line)
		}
		n.Path = path
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: nav mapping must have exactly one key", node.Line)
		}
		keyNode, valNode := node.Content[0], node.Content[1]
		if err := keyNode.Decode(&n.Title); err != nil {
			return err
		}
		switch valNode.Kind {
		case yaml.ScalarNode:
			if err := valNode.Decode(&n.Path); err != nil {
				return err
			}
			if n.Path == "" {
				return fmt.Errorf("line %d: nav entry %q has an empty path", valNode.Line, n.Title)
			}
			return nil
		case yaml.SequenceNode:
			if err := valNode.Decode(&n.Children); err != nil {
				return err
			}
			if len(n.Children) == 0 {
				return fmt.Errorf("line %d: nav section %q has no entries", valNode.Line, n.Title)
			}
			return nil
		default:
			return fmt.Errorf("line %d: nav entry %q must map to a path or a list", valNode.Line, n.Title)
		}
	default:
		return fmt.Errorf("line %d: nav entry must be a path or a single-key mapping", node.Line)
	}
}

// MarshalYAML emits the same form the entry was written in.
func (n NavItem) MarshalYAML() (any, error) {
	if n.IsSection() {
		return map[string]Nav{n.Title: n.Children}, nil
	}
	if n.Title == "" {
		return n.Path, nil
	}
	return map[string]string{n.Title: n.Path}, nil
}

// Walk calls fn for every item in depth-first order. Returning false stops
// the walk.
func (nav Nav) Walk(fn func(item NavItem, depth int) bool) {
	var walk func(items Nav, depth int) bool
	walk = func(items Nav, depth int) bool {
		for _, item := range items {
			if !fn(item, depth) {
				return false
			}
			if item.IsSection() {
				if !walk(item.Children, depth+1) {
					return false
				}
			}
		}
		return true
	}
	walk(nav, 0)
}

// Paths returns every page path referenced by the tree in traversal order.
func (nav Nav) Paths() []string {
	var paths []string
	nav.Walk(func(item NavItem, _ int) bool {
		if !item.IsSection() && item.Path != "" {
			paths = append(paths, item.Path)
		}
		return true
	})
	return paths
}
