package markdown

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugTransformer decomposes to NFKD and strips combining runes, so
// "Résumé" slugs the same as "Resume".
var slugTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns arbitrary text into a URL/anchor-safe slug: unicode
// normalized, lowercased, runs of punctuation and whitespace collapsed to a
// single dash. The same algorithm serves header anchors and search index
// locations.
func Slugify(text string) string {
	normalized, _, err := transform.String(slugTransformer, text)
	if err != nil {
		normalized = text
	}
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(normalized) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			// Non-latin letters stay; anchors remain readable for
			// non-english content.
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
