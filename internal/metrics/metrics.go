// Package metrics exposes Prometheus collectors for the crawler process.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchInFlight              prometheus.Gauge
	retryWaitSeconds           prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of status server requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of status server latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idioms_fetch_attempts_total",
				Help: "Individual GET attempts, labeled by whether the request completed.",
			},
			[]string{"result"},
		)

		fetchInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "idioms_fetch_in_flight",
				Help: "Identifiers currently being fetched.",
			},
		)

		retryWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "idioms_retry_wait_seconds",
				Help:    "Backoff waits between fetch attempts.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAttempt counts one fetch attempt.
func ObserveAttempt(err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveRetryWait records a backoff wait.
func ObserveRetryWait(d time.Duration) {
	Init()
	retryWaitSeconds.Observe(d.Seconds())
}

// IncInFlight increments the in-flight fetch gauge.
func IncInFlight() {
	Init()
	fetchInFlight.Inc()
}

// DecInFlight decrements the in-flight fetch gauge.
func DecInFlight() {
	Init()
	fetchInFlight.Dec()
}
