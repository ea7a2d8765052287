package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a private registry.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	pagesRendered prom.Counter
	pagesSkipped  prom.Counter
	rebuilds      *prom.CounterVec
	lrClients     prom.Gauge
	linkDuration  prom.Histogram
	linkResults   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the mkpages metrics on the
// given registry (a fresh private registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mkpages",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mkpages",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mkpages",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mkpages",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesRendered = prom.NewCounter(prom.CounterOpts{
			Namespace: "mkpages",
			Name:      "pages_rendered_total",
			Help:      "Pages rendered across all builds",
		})
		pr.pagesSkipped = prom.NewCounter(prom.CounterOpts{
			Namespace: "mkpages",
			Name:      "pages_skipped_total",
			Help:      "Pages skipped by incremental builds",
		})
		pr.rebuilds = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mkpages",
			Name:      "rebuilds_total",
			Help:      "Dev server rebuilds by trigger",
		}, []string{"trigger"})
		pr.lrClients = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mkpages",
			Name:      "livereload_clients",
			Help:      "Currently connected livereload clients",
		})
		pr.linkDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mkpages",
			Name:      "linkcheck_duration_seconds",
			Help:      "Duration of link verification runs",
			Buckets:   prom.DefBuckets,
		})
		pr.linkResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mkpages",
			Name:      "link_results_total",
			Help:      "Checked links by result",
		}, []string{"result"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults,
			pr.buildOutcome, pr.pagesRendered, pr.pagesSkipped, pr.rebuilds,
			pr.lrClients, pr.linkDuration, pr.linkResults)
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return pr
}

// Handler serves the recorder's registry for the admin listener.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) AddPagesSkipped(n int) {
	if p == nil || p.pagesSkipped == nil {
		return
	}
	p.pagesSkipped.Add(float64(n))
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil || p.rebuilds == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetLivereloadClients(n int) {
	if p == nil || p.lrClients == nil {
		return
	}
	p.lrClients.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveLinkCheckDuration(d time.Duration) {
	if p == nil || p.linkDuration == nil {
		return
	}
	p.linkDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLinkResult(result string) {
	if p == nil || p.linkResults == nil {
		return
	}
	p.linkResults.WithLabelValues(result).Inc()
}
