// Package metrics exposes Prometheus metrics for redirects, analytics reads
// and the HTTP surface. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redirector"

// Redirect outcomes.
const (
	OutcomeFound    = "found"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Metrics holds the application collectors.
type Metrics struct {
	registry *prometheus.Registry

	RedirectsTotal    *prometheus.CounterVec
	ClicksBySource    *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	DegradedSections  *prometheus.CounterVec
	LinksCreatedTotal prometheus.Counter
	HTTPDuration      *prometheus.HistogramVec
	UnreachableLinks  prometheus.Gauge
}

// New creates the collectors on a fresh registry that also carries the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RedirectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect resolutions by outcome",
		}, []string{"outcome"}),
		ClicksBySource: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_total",
			Help:      "Recorded click events by traffic source",
		}, []string{"source"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Destination cache lookups by result",
		}, []string{"result"}),
		DegradedSections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_degraded_sections_total",
			Help:      "Analytics sections replaced by their empty value after a storage error",
		}, []string{"section"}),
		LinksCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Links created",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		UnreachableLinks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_unreachable_links",
			Help:      "Links whose destination failed the last health check",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Redirect(outcome string) {
	if m == nil {
		return
	}
	m.RedirectsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Click(source string) {
	if m == nil {
		return
	}
	m.ClicksBySource.WithLabelValues(source).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Degraded(section string) {
	if m == nil {
		return
	}
	m.DegradedSections.WithLabelValues(section).Inc()
}

func (m *Metrics) LinkCreated() {
	if m == nil {
		return
	}
	m.LinksCreatedTotal.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

func (m *Metrics) SetUnreachable(n int) {
	if m == nil {
		return
	}
	m.UnreachableLinks.Set(float64(n))
}
