// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m3uforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "m3uforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "m3uforge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Playlist metrics
var (
	PlaylistsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m3uforge_playlists_parsed_total",
			Help: "Playlists deserialized, by result (ok, format_error)",
		},
		[]string{"result"},
	)

	EntriesParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "m3uforge_entries_parsed_total",
			Help: "Entries recovered from deserialized playlists",
		},
	)

	PlaylistsSerialized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "m3uforge_playlists_serialized_total",
			Help: "Playlists serialized for download or export",
		},
	)

	ImportJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m3uforge_import_jobs_total",
			Help: "Background import jobs processed, by result",
		},
		[]string{"result"},
	)
)
