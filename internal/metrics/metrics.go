// Package metrics exposes prometheus collectors for the pricing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheHitsTotal counts fresh price-cache hits, by cache key.
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_hits_total",
			Help: "Total number of fresh price cache hits.",
		},
		[]string{"key"},
	)

	// CacheMissesTotal counts price-cache misses that triggered a live fetch.
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_misses_total",
			Help: "Total number of price cache misses.",
		},
		[]string{"key"},
	)

	// FallbackServesTotal counts responses served from the fallback store.
	FallbackServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_fallback_serves_total",
			Help: "Total number of values served from the fallback store.",
		},
		[]string{"key"},
	)

	// UpstreamFailuresTotal counts failed upstream fetches, by source.
	UpstreamFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_failures_total",
			Help: "Total number of failed upstream price or estimation calls.",
		},
		[]string{"source"},
	)

	// QuoteLatencySeconds tracks end-to-end quote composition latency.
	QuoteLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_latency_seconds",
			Help:    "Latency of pricing breakdown composition in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// HTTPLatencySeconds tracks HTTP request latency.
	HTTPLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		FallbackServesTotal,
		UpstreamFailuresTotal,
		QuoteLatencySeconds,
		HTTPLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures HTTP latency for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		HTTPLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
