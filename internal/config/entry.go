package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is a named list element that optionally carries a small options
// mapping. The YAML forms are:
//
//	- name
//	- name:
//	    key: value
//
// Order of entries is load-bearing and preserved by the decoder.
type Entry struct {
	Name    string
	Options map[string]any
}

// UnmarshalYAML decodes either the bare-scalar or single-key-mapping form.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		e.Name = name
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: entry mapping must have exactly one key", node.Line)
		}
		keyNode, valNode := node.Content[0], node.Content[1]
		if err := keyNode.Decode(&e.Name); err != nil {
			return err
		}
		// A null value ("name:" with nothing nested) means no options.
		if valNode.Tag == "!!null" {
			return nil
		}
		if err := valNode.Decode(&e.Options); err != nil {
			return fmt.Errorf("line %d: options for %q: %w", valNode.Line, e.Name, err)
		}
		return nil
	default:
		return fmt.Errorf("line %d: entry must be a name or a single-key mapping", node.Line)
	}
}

// MarshalYAML emits the shortest form that round-trips the entry.
func (e Entry) MarshalYAML() (any, error) {
	if len(e.Options) == 0 {
		return e.Name, nil
	}
	return map[string]any{e.Name: e.Options}, nil
}

// Option returns a named option value and whether it was present.
func (e Entry) Option(key string) (any, bool) {
	v, ok := e.Options[key]
	return v, ok
}

// BoolOption returns a boolean option, or def when absent or not a bool.
func (e Entry) BoolOption(key string, def bool) bool {
	if v, ok := e.Options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// IntOption returns an integer option, or def when absent or not an int.
func (e Entry) IntOption(key string, def int) int {
	if v, ok := e.Options[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return def
}

// StringOption returns a string option, or def when absent or not a string.
func (e Entry) StringOption(key, def string) string {
	if v, ok := e.Options[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Canonical markdown extension names.
const (
	ExtTables        = "tables"
	ExtStrikethrough = "strikethrough"
	ExtTasklist      = "tasklist"
	ExtAutolink      = "autolink"
	ExtFootnotes     = "footnotes"
	ExtDefList       = "def_list"
	ExtTypographer   = "typographer"
	ExtAttrList      = "attr_list"
	ExtAdmonition    = "admonition"
	ExtTOC           = "toc"
	ExtHighlight     = "highlight"
	ExtSuperfences   = "superfences"
)

// Built-in plugin names.
const (
	PluginSearch  = "search"
	PluginAPIRef  = "apiref"
	PluginGitInfo = "gitinfo"
)

// knownExtensions is the closed set of extension names after alias expansion.
var knownExtensions = map[string]struct{}{
	ExtTables: {}, ExtStrikethrough: {}, ExtTasklist: {}, ExtAutolink: {},
	ExtFootnotes: {}, ExtDefList: {}, ExtTypographer: {}, ExtAttrList: {},
	ExtAdmonition: {}, ExtTOC: {}, ExtHighlight: {}, ExtSuperfences: {},
}

// extensionAliases maps accepted alternate spellings to canonical entries.
// "gfm" expands to the four GitHub-flavored markdown extensions.
var extensionAliases = map[string][]string{
	"gfm":         {ExtTables, ExtStrikethrough, ExtTasklist, ExtAutolink},
	"smartypants": {ExtTypographer},
}

// knownPlugins is the closed set of built-in plugin names.
var knownPlugins = map[string]struct{}{
	PluginSearch: {}, PluginAPIRef: {}, PluginGitInfo: {},
}

// extensionOptionKeys lists the recognized option keys per extension.
// Unknown keys produce normalization warnings, not errors.
var extensionOptionKeys = map[string][]string{
	ExtTOC:       {"permalink", "permalink_title", "depth"},
	ExtHighlight: {"anchor_linenums", "linenums", "style", "guess_lang"},
}

// pluginOptionKeys lists the recognized option keys per built-in plugin.
var pluginOptionKeys = map[string][]string{
	PluginSearch:  {"min_search_length", "lang"},
	PluginAPIRef:  {"spec", "section"},
	PluginGitInfo: {"fallback_to_mtime", "date_format"},
}
