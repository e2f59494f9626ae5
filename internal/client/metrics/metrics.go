// Package metrics holds the Prometheus collectors reported by the client
// core: submissions, job polling and payload handles.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophdisk"

// Metrics exposes the client collectors.
type Metrics struct {
	registry *prometheus.Registry

	Submissions *prometheus.CounterVec
	Polls       *prometheus.CounterVec
	ActiveJobs  prometheus.Gauge
	LiveHandles prometheus.Gauge
	Releases    prometheus.Counter
}

// New builds a Metrics instance backed by its own registry, so several
// clients (or tests) can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "submissions_total",
			Help:      "Ingestion submissions by kind and result.",
		}, []string{"kind", "result"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "polls_total",
			Help:      "Job list polls by result.",
		}, []string{"result"}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "active",
			Help:      "Jobs in the active polling set.",
		}),
		LiveHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "live_handles",
			Help:      "Payload handles currently held in memory.",
		}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "releases_total",
			Help:      "Payload handles released.",
		}),
	}
	reg.MustRegister(m.Submissions, m.Polls, m.ActiveJobs, m.LiveHandles, m.Releases)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
