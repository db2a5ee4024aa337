// Package metrics counts fixture traffic against the backend so slow or
// failing seeding shows up in suite reports.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder observes fixture requests. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewRecorder registers the fixture metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skilltree_fixture_requests_total",
			Help: "Total number of fixture requests sent to the backend",
		}, []string{"method", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skilltree_fixture_failures_total",
			Help: "Total number of fixture requests that did not return 2xx",
		}, []string{"method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skilltree_fixture_request_duration_seconds",
			Help:    "Fixture request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	r.registry.MustRegister(r.requests, r.failures, r.latency)
	return r
}

// Observe records one completed request. status 0 means no response.
func (r *Recorder) Observe(method string, status int, took time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	if status < 200 || status > 299 {
		r.failures.WithLabelValues(method).Inc()
	}
	r.latency.WithLabelValues(method).Observe(took.Seconds())
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps the current values in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Requests returns the counter for one method/status pair.
func (r *Recorder) Requests(method string, status int) prometheus.Counter {
	return r.requests.WithLabelValues(method, strconv.Itoa(status))
}

// Failures returns the failure counter for method.
func (r *Recorder) Failures(method string) prometheus.Counter {
	return r.failures.WithLabelValues(method)
}
