// Package metrics exposes prometheus collectors for report generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "fxreport_"

// Result labels.
const (
	ResultSuccess      = "success"
	ResultError        = "error"
	ResultInsufficient = "insufficient_data"
)

// Metrics holds the collectors and the registry they live on.
type Metrics struct {
	registry *prometheus.Registry

	reportsTotal  *prometheus.CounterVec
	buildLatency  prometheus.Histogram
	reportRecords prometheus.Histogram
	issuesTotal   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reports_total",
				Help: "Total report builds by result",
			},
			[]string{"result"},
		),
		buildLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_build_seconds",
				Help:    "Time from loaded rows to encoded workbook in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		reportRecords: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_records",
				Help:    "In-window records per report",
				Buckets: []float64{0, 1, 10, 63, 126, 252, 630, 1260},
			},
		),
		issuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_issues_total",
				Help: "Data issues flagged while building reports by kind",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(
		m.reportsTotal,
		m.buildLatency,
		m.reportRecords,
		m.issuesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveReport records one finished build. A nil receiver is a no-op so
// callers without metrics can pass nil.
func (m *Metrics) ObserveReport(result string, elapsed time.Duration, records int) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(result).Inc()
	m.buildLatency.Observe(elapsed.Seconds())
	if result == ResultSuccess {
		m.reportRecords.Observe(float64(records))
	}
}

// ObserveIssue counts a flagged data issue.
func (m *Metrics) ObserveIssue(kind string) {
	if m == nil {
		return
	}
	m.issuesTotal.WithLabelValues(kind).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
