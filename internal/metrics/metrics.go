// Package metrics exposes Prometheus collectors for the schedule service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sourceAttemptsTotal          *prometheus.CounterVec
	chainResultsTotal            *prometheus.CounterVec
	cacheLookupsTotal            *prometheus.CounterVec
	pagesFetchedTotal            *prometheus.CounterVec
	bytesFetchedTotal            *prometheus.CounterVec
	detailDropsTotal             *prometheus.CounterVec
	activeWorkers                prometheus.Gauge
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec
	rateLimitDelaysSeconds       *prometheus.HistogramVec
	upstreamFetchDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		sourceAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_source_attempts_total",
				Help: "Source attempts made by the fallback chain, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		chainResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_chain_results_total",
				Help: "Calendar queries resolved by the fallback chain, labeled by status.",
			},
			[]string{"status"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_cache_lookups_total",
				Help: "Cache lookups, labeled by source tag and result.",
			},
			[]string{"source", "result"},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_pages_fetched_total",
				Help: "Upstream pages fetched, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		bytesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_bytes_fetched_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		detailDropsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "f1_detail_drops_total",
				Help: "Pool tasks dropped after an error or panic, labeled by pool.",
			},
			[]string{"pool"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "f1_active_workers",
				Help: "Number of pool workers currently running a task.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "f1_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		upstreamFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "f1_upstream_fetch_duration_seconds",
				Help:    "Histogram of upstream fetch latencies, labeled by site.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"site"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSourceAttempt counts one chain attempt against a source.
func ObserveSourceAttempt(source, outcome string) {
	Init()
	sourceAttemptsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveChainResult counts a resolved calendar query.
func ObserveChainResult(status string) {
	Init()
	chainResultsTotal.WithLabelValues(status).Inc()
}

// ObserveCacheLookup counts a cache read.
func ObserveCacheLookup(source, result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(source, result).Inc()
}

// ObserveFetch records an upstream page fetch.
func ObserveFetch(site string, status string, bytesFetched int, duration time.Duration) {
	Init()
	sanitizedSite := SanitizeSite(site)
	pagesFetchedTotal.WithLabelValues(sanitizedSite, status).Inc()
	if bytesFetched > 0 {
		bytesFetchedTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
	if duration > 0 {
		upstreamFetchDurationSeconds.WithLabelValues(sanitizedSite).Observe(duration.Seconds())
	}
}

// ObserveDrop counts a dropped pool task.
func ObserveDrop(pool string) {
	Init()
	detailDropsTotal.WithLabelValues(pool).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
