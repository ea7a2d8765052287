// Package frontmatter splits optional YAML frontmatter off markdown sources
// and exposes the handful of fields the build pipeline understands. Unknown
// fields are kept and passed through to templates untouched.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta carries the recognized frontmatter fields of a page.
type Meta struct {
	Title       string
	Description string
	Template    string
	Hide        []string

	// Extra holds every field, recognized or not, for template access.
	Extra map[string]any
}

// Hidden reports whether a named UI element (e.g. "toc", "nav") is listed in
// the page's hide directive.
func (m *Meta) Hidden(element string) bool {
	for _, h := range m.Hide {
		if h == element {
			return true
		}
	}
	return false
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a frontmatter delimiter, had is false
// and body is the full input. CRLF sources are handled.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[start:], closeLine) {
		return []byte{}, content[start+len(closeLine):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:end], content[bodyStart:], true, nil
}

// Parse splits a document and decodes its frontmatter into Meta. Documents
// without frontmatter yield an empty Meta and the full body.
func Parse(content []byte) (*Meta, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return nil, nil, err
	}
	meta := &Meta{Extra: map[string]any{}}
	if !had || len(fm) == 0 {
		return meta, body, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, nil, err
	}
	for k, v := range fields {
		meta.Extra[k] = v
	}
	if title, ok := fields["title"].(string); ok {
		meta.Title = title
	}
	if desc, ok := fields["description"].(string); ok {
		meta.Description = desc
	}
	if tpl, ok := fields["template"].(string); ok {
		meta.Template = tpl
	}
	if hide, ok := fields["hide"].([]any); ok {
		for _, h := range hide {
			if s, ok := h.(string); ok {
				meta.Hide = append(meta.Hide, s)
			}
		}
	}
	return meta, body, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
