package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts outbound requests by endpoint, method and
	// status class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jaytalk_client_requests_total",
		Help: "Total number of outbound requests to the JayTalk service",
	}, []string{"endpoint", "method", "status"})

	// RequestLatency records outbound request latency by endpoint.
	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jaytalk_client_request_latency_seconds",
		Help:    "Outbound request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// OptimisticRollbacks counts optimistic mutations rolled back after a
	// failed server call.
	OptimisticRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jaytalk_client_optimistic_rollbacks_total",
		Help: "Total number of optimistic updates rolled back on failure",
	})

	// BreakerOpens counts circuit breaker state transitions to open.
	BreakerOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jaytalk_client_breaker_opens_total",
		Help: "Total number of times the transport circuit breaker opened",
	})
)
