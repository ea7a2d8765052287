package pages

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mkpages/mkpages/internal/markdown"
)

var titleCaser = cases.Title(language.Und)

// Slugify is re-exported from the markdown package so nav-level slugs and
// header anchors stay on one algorithm.
func Slugify(text string) string { return markdown.Slugify(text) }

// TitleFromFilename derives a display title from a file or directory name:
// "getting_started" becomes "Getting Started".
func TitleFromFilename(name string) string {
	name = strings.TrimSuffix(name, ".md")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(name)
}
