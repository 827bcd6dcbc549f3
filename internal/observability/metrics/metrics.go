// Package metrics exposes the Prometheus instrumentation for the
// service: HTTP request counters/latency plus per-provider exchange
// outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	exchangesTotal *prometheus.CounterVec
)

// Register initializes the collectors on the given registerer and
// returns the handler for /metrics. Safe to call once per process.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of processed HTTP requests.",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests currently being served.",
		})

		exchangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_exchanges_total",
			Help: "Token exchange attempts per provider and outcome.",
		}, []string{"provider", "outcome"})

		reg.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, exchangesTotal)
	})

	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// ObserveRequest records one completed HTTP request.
func ObserveRequest(method, path string, status int, dur time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}

// IncInflight adjusts the inflight request gauge.
func IncInflight(delta float64) {
	if httpInflight != nil {
		httpInflight.Add(delta)
	}
}

// IncExchange records one exchange attempt. Outcome is "ok", "error",
// or "no_code".
func IncExchange(provider, outcome string) {
	if exchangesTotal != nil {
		exchangesTotal.WithLabelValues(provider, outcome).Inc()
	}
}
