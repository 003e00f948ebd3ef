package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "songs_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog metrics
var (
	CatalogQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songs_catalog_queries_total",
			Help: "Total number of catalog operations",
		},
		[]string{"operation", "status"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songs_catalog_query_duration_seconds",
			Help:    "Catalog operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Ingestion metrics
var (
	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songs_ingest_files_total",
			Help: "Files processed by ingestion, by outcome",
		},
		[]string{"outcome"}, // "uploaded", "duplicate", "upload_failed", "save_failed", "invalid_name"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songs_ingest_batch_duration_seconds",
			Help:    "Duration of an ingestion batch in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CompensationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songs_compensation_failures_total",
			Help: "Remote artifacts that could not be deleted after a failed catalog write",
		},
	)

	BlobReleaseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songs_blob_release_failures_total",
			Help: "Remote artifacts that could not be deleted after a song was removed",
		},
	)
)

// Worker metrics
var (
	WatcherFilesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songs_watcher_files_detected_total",
			Help: "Audio files detected by the folder watcher",
		},
	)

	SweeperRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songs_sweeper_runs_total",
			Help: "Total number of orphan sweeper runs",
		},
	)

	SweeperOrphansRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songs_sweeper_orphans_removed_total",
			Help: "Orphaned remote artifacts removed by the sweeper",
		},
	)
)
