package pages

import "github.com/mkpages/mkpages/internal/config"

// Generated constructs a page that has no source file on disk. Plugins use
// this to inject pages that then flow through the normal render stage.
func Generated(cfg *config.Config, file, title string, body []byte) *Page {
	url, out := pageAddress(file, cfg.DirectoryURLs())
	return &Page{
		File:      file,
		Title:     title,
		URL:       url,
		OutPath:   out,
		Body:      body,
		InNav:     true,
		Generated: true,
	}
}

// Append adds generated pages to the site under a top-level nav section,
// creating the section when it does not exist, and relinks the prev/next
// chain. Pages land after all explicit nav entries.
func (s *Site) Append(sectionTitle string, gen ...*Page) {
	if len(gen) == 0 {
		return
	}

	var section *NavNode
	for _, node := range s.Nav {
		if node.IsSection() && node.Title == sectionTitle {
			section = node
			break
		}
	}
	if section == nil {
		section = &NavNode{Title: sectionTitle}
		s.Nav = append(s.Nav, section)
	}

	for _, p := range gen {
		p.Sections = []string{sectionTitle}
		section.Children = append(section.Children, &NavNode{Title: p.Title, Page: p})
		s.Pages = append(s.Pages, p)
	}
	linkOrder(s.Pages)
}
