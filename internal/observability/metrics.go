package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	requestErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the development
// backend's request traffic.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edugen_devserver_requests_total",
			Help: "Total number of API requests served by the development backend.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edugen_devserver_request_latency_seconds",
			Help:    "Latency distribution for development backend requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edugen_devserver_request_errors_total",
			Help: "Total number of error responses returned by the development backend.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(requestsTotal, requestLatencySeconds, requestErrorsTotal)
	})
}

// Requests exposes the counter for served requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the request latency histogram.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// RequestErrors exposes the counter for error responses.
func RequestErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrorsTotal
}
