// Package linkcheck verifies links: markdown sources against the resolved
// page set, rendered HTML against the site directory, and external URLs over
// HTTP with optional caching and event publishing.
package linkcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// FindingKind classifies what a broken reference points at.
type FindingKind string

const (
	KindPage     FindingKind = "page"     // relative .md target missing
	KindAnchor   FindingKind = "anchor"   // heading fragment missing
	KindAsset    FindingKind = "asset"    // image or file beside the docs
	KindExternal FindingKind = "external" // http(s) target unreachable
	KindRendered FindingKind = "rendered" // built file missing in site dir
)

// Finding is one broken reference.
type Finding struct {
	Page   string      `json:"page"`
	URL    string      `json:"url"`
	Kind   FindingKind `json:"kind"`
	Reason string      `json:"reason"`
	Line   int         `json:"line,omitempty"`
	Status int         `json:"status,omitempty"` // HTTP status for external findings
}

func (f Finding) String() string {
	loc := f.Page
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.Page, f.Line)
	}
	return fmt.Sprintf("%s: %s %q: %s", loc, f.Kind, f.URL, f.Reason)
}

// Result aggregates one verification run.
type Result struct {
	LinksChecked int           `json:"links_checked"`
	Findings     []Finding     `json:"findings"`
	Duration     time.Duration `json:"-"`
	DurationMS   int64         `json:"duration_ms"`
}

// Broken reports whether any finding was recorded.
func (r *Result) Broken() bool { return len(r.Findings) > 0 }

// Sort orders findings by page, then line, then URL for stable output.
func (r *Result) Sort() {
	sort.Slice(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.URL < b.URL
	})
}

// WriteText prints findings one per line with a trailing summary.
func (r *Result) WriteText(w io.Writer) error {
	for _, f := range r.Findings {
		if _, err := fmt.Fprintln(w, f.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "checked %d links, %d broken\n", r.LinksChecked, len(r.Findings))
	return err
}

// WriteJSON prints the whole result as an indented JSON document.
func (r *Result) WriteJSON(w io.Writer) error {
	r.DurationMS = r.Duration.Milliseconds()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
