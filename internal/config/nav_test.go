package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNavDeepNesting(t *testing.T) {
	var nav Nav
	require.NoError(t, yaml.Unmarshal([]byte(`
- Home: index.md
- Guides:
    - Basics:
        - guides/basics/setup.md
        - First Steps: guides/basics/first.md
    - guides/advanced.md
`), &nav))

	want := Nav{
		{Title: "Home", Path: "index.md"},
		{Title: "Guides", Children: Nav{
			{Title: "Basics", Children: Nav{
				{Path: "guides/basics/setup.md"},
				{Title: "First Steps", Path: "guides/basics/first.md"},
			}},
			{Path: "guides/advanced.md"},
		}},
	}
	if diff := cmp.Diff(want, nav); diff != "" {
		t.Fatalf("nav tree mismatch (-want +got):\n%s", diff)
	}
}

func TestNavOrderPreserved(t *testing.T) {
	var nav Nav
	require.NoError(t, yaml.Unmarshal([]byte(`
- z.md
- a.md
- m.md
`), &nav))
	assert.Equal(t, []string{"z.md", "a.md", "m.md"}, nav.Paths())
}

func TestNavRoundTrip(t *testing.T) {
	src := Nav{
		{Path: "index.md"},
		{Title: "Install", Path: "install.md"},
		{Title: "API", Children: Nav{{Title: "Client", Path: "api/client.md"}}},
	}
	out, err := yaml.Marshal(src)
	require.NoError(t, err)

	var back Nav
	require.NoError(t, yaml.Unmarshal(out, &back))
	if diff := cmp.Diff(src, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNavRejectsMalformedEntries(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty scalar", `- ""`},
		{"two keys", "- A: a.md\n  B: b.md"},
		{"empty section", "- Section: []"},
		{"mapping value", "- A:\n    nested: x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var nav Nav
			assert.Error(t, yaml.Unmarshal([]byte(tc.doc), &nav))
		})
	}
}

func TestNavValidationRejectsEscapingPaths(t *testing.T) {
	_, _, err := Parse("site_name: x\nnav:\n  - ../secrets.md\n")
	require.Error(t, err)

	_, _, err = Parse("site_name: x\nnav:\n  - /etc/passwd.md\n")
	require.Error(t, err)

	_, _, err = Parse("site_name: x\nnav:\n  - notes.txt\n")
	require.Error(t, err)
}

func TestNavWalkStops(t *testing.T) {
	var nav Nav
	require.NoError(t, yaml.Unmarshal([]byte("- a.md\n- b.md\n- c.md\n"), &nav))
	visited := 0
	nav.Walk(func(item NavItem, _ int) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}
