// Package metrics defines the Prometheus collectors of the playlist API.
// All metrics are prefixed with "playlist_api_" and registered on the
// default registry at init, so promhttp.Handler exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlist_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlist_api_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_api_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)

// Store metrics
var (
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_api_store_operations_total",
			Help: "Catalog and playlist store operations by backend, operation and status",
		},
		[]string{"backend", "operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlist_api_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend", "operation"},
	)
)

// Upload and playlist metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_api_uploads_total",
			Help: "Artist CSV uploads by outcome (success, rejected, failed)",
		},
		[]string{"status"},
	)

	UploadRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_api_upload_rows_total",
			Help: "Song rows processed by uploads (upserted, failed)",
		},
		[]string{"result"},
	)

	UploadsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlist_api_uploads_in_progress",
			Help: "Uploads currently holding a limiter slot",
		},
	)

	PlaylistChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_api_playlist_changes_total",
			Help: "Playlist mutations by kind (add, remove, clear)",
		},
		[]string{"kind"},
	)
)

// ObserveStore records one store operation started at start.
func ObserveStore(backend, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
