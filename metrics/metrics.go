// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusnav_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// RoutesTotal counts route requests by outcome: found, no_route,
	// unknown_building, invalid, error.
	RoutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_routes_total",
			Help: "Route requests by outcome",
		},
		[]string{"outcome"},
	)

	GraphBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campusnav_graph_build_duration_seconds",
			Help:    "Time spent loading records and building the routing graph",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	// GraphSkippedRecords counts records the lenient builder dropped, by
	// reason: duplicate_node, invalid_weight, dangling_path.
	GraphSkippedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_graph_skipped_records_total",
			Help: "Records dropped while building the routing graph",
		},
		[]string{"reason"},
	)

	GraphCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusnav_graph_cache_lookups_total",
			Help: "Graph cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
)
