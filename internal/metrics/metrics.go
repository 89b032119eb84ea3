// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Claim attempts by kind (loyalty, referral) and outcome (claimed, already_claimed, not_found, no_referral, error)
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_claims_total",
			Help: "Claim attempts on invoice loyalty and referral points",
		},
		[]string{"kind", "outcome"},
	)

	InvoicesRecomputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loyalty_invoices_recomputed_total",
			Help: "Invoices whose derived loyalty fields were recomputed and saved",
		},
	)
)
