// Package metrics defines the observability hooks the build pipeline and
// the dev server report into. The default NoopRecorder keeps metrics free
// when nothing is scraping; the Prometheus recorder backs the admin
// listener's /metrics endpoint.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for builds, rendering and link
// checking. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // success|warning|failed|canceled
	AddPagesRendered(n int)
	AddPagesSkipped(n int)
	IncRebuild(trigger string) // watch|schedule|config
	SetLivereloadClients(n int)
	ObserveLinkCheckDuration(d time.Duration)
	IncLinkResult(result string) // ok|broken|cached|skipped
}

// NoopRecorder is the default Recorder when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) AddPagesRendered(int)                       {}
func (NoopRecorder) AddPagesSkipped(int)                        {}
func (NoopRecorder) IncRebuild(string)                          {}
func (NoopRecorder) SetLivereloadClients(int)                   {}
func (NoopRecorder) ObserveLinkCheckDuration(time.Duration)     {}
func (NoopRecorder) IncLinkResult(string)                       {}
