// Package metrics registers the Prometheus instruments exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UpstreamFailures counts degraded calls to external services.
	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_upstream_failures_total",
			Help: "Total number of upstream calls that degraded to an empty or error result",
		},
		[]string{"service"},
	)

	// DiscoveryEvents counts events returned per discovery bucket.
	DiscoveryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_discovery_events_total",
			Help: "Total number of events returned by discovery, by bucket",
		},
		[]string{"bucket"},
	)

	// IngestedEvents counts provider events upserted into the store.
	IngestedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orbit_ingested_events_total",
			Help: "Total number of provider events synced into the event store",
		},
	)
)
