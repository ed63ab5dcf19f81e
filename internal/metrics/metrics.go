// Package metrics exposes Prometheus instrumentation for repository
// operations. Collection happens unconditionally; the /metrics listener is
// only started when configured, so an unconfigured server pays a counter
// increment and nothing else.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typo3mcp",
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Repository operations by outcome.",
	}, []string{"operation", "collection", "status"})

	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "typo3mcp",
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Repository operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "collection"})
)

// ObserveOp records one finished repository operation. status is "ok" or
// the stable error kind.
func ObserveOp(operation, collection, status string, elapsed time.Duration) {
	opsTotal.WithLabelValues(operation, collection, status).Inc()
	opDuration.WithLabelValues(operation, collection).Observe(elapsed.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
