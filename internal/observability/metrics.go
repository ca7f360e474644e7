// Package observability provides Prometheus metrics for run requests and
// HTTP traffic.
package observability

import "github.com/prometheus/client_golang/prometheus"

// RunBuckets covers compile-and-run latencies from 250ms to 60s.
var RunBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60}

var (
	// RunRequestsTotal counts run requests by language and outcome.
	RunRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carcin_play_run_requests_total",
			Help: "Run requests sent to the execution service",
		},
		[]string{"language", "outcome"},
	)

	// RunDuration records the round trip to the execution service.
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carcin_play_run_duration_seconds",
			Help:    "Run request duration",
			Buckets: RunBuckets,
		},
		[]string{"language"},
	)

	// RunsInFlight tracks run requests awaiting a response.
	RunsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carcin_play_runs_in_flight",
			Help: "Run requests in flight",
		},
	)

	// WidgetsActive tracks widgets held by the server.
	WidgetsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carcin_play_widgets_active",
			Help: "Widgets held in memory",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carcin_play_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "status"},
	)

	// HTTPRequestDuration records HTTP request duration by method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carcin_play_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		RunRequestsTotal,
		RunDuration,
		RunsInFlight,
		WidgetsActive,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
