package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics holds the server's Prometheus instruments on a private
// registry, so multiple servers in one process never collide.
type metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runDuration     *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadflow_http_requests_total",
			Help: "HTTP requests by path, method, and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "threadflow_http_request_duration_seconds",
			Help: "HTTP request latency by path.",
		}, []string{"path"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "threadflow_agent_run_duration_seconds",
			Help: "Supervisor run duration by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.requests,
		m.requestDuration,
		m.runDuration,
	)
	return m
}
