package site

import "time"

// Outcome is the final classification of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report summarizes one build for callers and the manifest.
type Report struct {
	BuildID string
	Start   time.Time
	End     time.Time

	StageDurations map[string]time.Duration

	PagesRendered int
	PagesSkipped  int
	AssetsCopied  int

	Warnings []string
	Errors   []error

	Outcome Outcome
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// Duration is the wall-clock build time.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *Report) finish() {
	r.End = time.Now()
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		for _, err := range r.Errors {
			if se, ok := err.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
			}
		}
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}
