// Prometheus metrics for the HTTP server, used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// ingestTotal counts completed document uploads, partitioned by
	// outcome: "ok", "unreadable", or "error".
	ingestTotal *prometheus.CounterVec

	// ingestDurationSeconds records the wall-clock duration of successful
	// ingestions from upload receipt to catalog registration.
	ingestDurationSeconds prometheus.Histogram

	// askTotal counts completed /api/ask requests, partitioned by outcome.
	askTotal *prometheus.CounterVec

	// askDurationSeconds records the latency of successful /api/ask requests.
	askDurationSeconds prometheus.Histogram

	// documentsGauge tracks the number of registered documents.
	documentsGauge prometheus.Gauge

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler label, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default;
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		ingestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxdocs",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of document uploads completed, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxdocs",
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of successful document ingestions.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		askTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxdocs",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total number of /api/ask requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		askDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxdocs",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Latency of successful /api/ask requests including the embedding call.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		documentsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxdocs",
			Name:      "documents",
			Help:      "Number of registered documents.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxdocs",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", "handler", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxdocs",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "handler"}),
	}
}
