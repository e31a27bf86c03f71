// Package metrics defines the Prometheus collectors of the topicgraph service.
//
// Every Metrics value owns its registry, so tests can build as many as they
// like without duplicate registration panics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "topicgraph"

// Metrics holds the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests. Labels: route, method, status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes HTTP latency. Labels: route, method.
	RequestDuration *prometheus.HistogramVec

	// SessionsOpened counts database sessions opened for requests.
	SessionsOpened prometheus.Counter

	// SeedFactsTotal counts merged seed facts. Labels: kind.
	SeedFactsTotal *prometheus.CounterVec
}

// New creates and registers the collectors on a fresh registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route and method.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "sessions_opened_total",
			Help:      "Database sessions opened on behalf of HTTP requests.",
		}),
		SeedFactsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "seed",
				Name:      "facts_total",
				Help:      "Seed facts merged into the graph by kind.",
			},
			[]string{"kind"},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
