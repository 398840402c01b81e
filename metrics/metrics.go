// Package metrics provides Prometheus metrics collection for the vignette
// resolution API. Alongside the usual HTTP request metrics it tracks the
// resolution pipeline itself:
//   - resolutions_total: Counter labeled by final status
//   - resolution_match_score: Histogram of reported match scores
//   - catalog_entries: Gauge of loaded catalog entries
//   - catalog_load_duration_seconds: Histogram of catalog load times
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolutions_total",
			Help: "Total vignette resolutions by final status",
		},
		[]string{"status"},
	)

	ResolutionMatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolution_match_score",
			Help:    "Match scores reported by the resolver",
			Buckets: []float64{50, 60, 70, 75, 80, 85, 90, 95, 100},
		},
	)

	CatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of catalog entries currently loaded",
		},
	)

	CatalogLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Time spent loading and indexing the catalog",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(ResolutionMatchScore)
	prometheus.MustRegister(CatalogEntries)
	prometheus.MustRegister(CatalogLoadDuration)
}
