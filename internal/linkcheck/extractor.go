package linkcheck

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// HTMLLink is a reference extracted from a rendered page.
type HTMLLink struct {
	URL       string
	Text      string // link text, alt text or rel, depending on the tag
	Tag       string // a, img, script, link, source, video, audio
	Attribute string // href or src
}

// linkAttrs maps element names to the attribute carrying the reference.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// ExtractHTMLLinks parses rendered HTML and returns every outgoing
// reference in document order.
func ExtractHTMLLinks(r io.Reader) ([]HTMLLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []HTMLLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if val := getAttr(n, attr); val != "" {
					links = append(links, HTMLLink{
						URL:       val,
						Text:      elementLabel(n),
						Tag:       n.Data,
						Attribute: attr,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func elementLabel(n *html.Node) string {
	switch n.Data {
	case "a":
		return nodeText(n)
	case "img":
		return getAttr(n, "alt")
	case "link":
		return getAttr(n, "rel")
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return strings.TrimSpace(sb.String())
}

// IsExternal reports whether the reference leaves the site.
func IsExternal(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
