package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple words", input: "Getting Started", want: "getting-started"},
		{name: "accents folded", input: "Résumé & CV", want: "resume-cv"},
		{name: "punctuation collapsed", input: "C++ / Go!", want: "c-go"},
		{name: "version numbers", input: "Version 2.0", want: "version-2-0"},
		{name: "leading and trailing junk", input: "  ...Hello...  ", want: "hello"},
		{name: "already a slug", input: "already-a-slug", want: "already-a-slug"},
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: "!!!", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.input))
		})
	}
}

func TestSlugifyStable(t *testing.T) {
	// Anchors must not change between runs; they end up in the search
	// index and in readers' bookmarks.
	first := Slugify("API Reference: Records & Fields")
	second := Slugify("API Reference: Records & Fields")
	assert.Equal(t, first, second)
	assert.Equal(t, "api-reference-records-fields", first)
}
