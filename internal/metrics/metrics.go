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

	fetchResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickorder",
			Subsystem: "fetch",
			Name:      "results_total",
			Help:      "Reference data loads by entity and where the value came from.",
		},
		[]string{"entity", "source"},
	)

	cacheWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickorder",
			Subsystem: "cache",
			Name:      "write_failures_total",
			Help:      "Cache writes that failed after a successful fetch or history change.",
		},
		[]string{"entity"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickorder",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quickorder",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(fetchResults, cacheWriteFailures, httpRequests, httpDuration)
}

// RecordFetch counts one load outcome.
func RecordFetch(entity, source string) {
	fetchResults.WithLabelValues(entity, source).Inc()
}

func RecordCacheWriteFailure(entity string) {
	cacheWriteFailures.WithLabelValues(entity).Inc()
}

// RecordHTTPRequest records one handled request. path should be the route
// pattern, not the raw URL, to keep cardinality bounded.
func RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
