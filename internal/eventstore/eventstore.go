// Package eventstore keeps an append-only history of build and verification
// events in sqlite, used by the check command and the serve daemon when a
// history database is configured.
package eventstore

import "time"

// Event types recorded by mkpages.
const (
	TypeBuildStarted    = "build.started"
	TypeBuildCompleted  = "build.completed"
	TypeBuildFailed     = "build.failed"
	TypeVerifyCompleted = "verify.completed"
	TypeBrokenLink      = "link.broken"
)

// Event is one row of the history log. Payload is the event-specific JSON
// document; Metadata carries small indexed-by-nobody string pairs.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// BuildPayload is the payload for build lifecycle events.
type BuildPayload struct {
	Outcome       string `json:"outcome,omitempty"`
	PagesRendered int    `json:"pages_rendered,omitempty"`
	PagesSkipped  int    `json:"pages_skipped,omitempty"`
	DurationMS    int64  `json:"duration_ms,omitempty"`
	Warnings      int    `json:"warnings,omitempty"`
	Error         string `json:"error,omitempty"`
}

// VerifyPayload is the payload for verification sweep summaries.
type VerifyPayload struct {
	LinksChecked int   `json:"links_checked"`
	Broken       int   `json:"broken"`
	DurationMS   int64 `json:"duration_ms"`
}
