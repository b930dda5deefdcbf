// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perfpredict",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "perfpredict",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perfpredict",
			Subsystem: "inference",
			Name:      "predictions_total",
			Help:      "Total number of recorded predictions by label.",
		},
		[]string{"label"},
	)

	storagePersistent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "perfpredict",
			Subsystem: "storage",
			Name:      "persistent",
			Help:      "1 when the process runs on durable storage, 0 in fallback mode.",
		},
		[]string{"mode"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, predictions, storagePersistent)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObservePrediction counts a recorded prediction.
func ObservePrediction(label string) {
	predictions.WithLabelValues(label).Inc()
}

// SetStorageMode publishes the startup storage decision.
func SetStorageMode(mode string, persistent bool) {
	storagePersistent.Reset()
	value := 0.0
	if persistent {
		value = 1
	}
	storagePersistent.WithLabelValues(mode).Set(value)
}
