package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "trajectory_files_parsed_total",
		Help:      "Total number of trajectory files parsed and persisted",
	})

	FilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "trajectory_files_skipped_total",
		Help:      "Total number of trajectory files skipped, by reason",
	}, []string{"reason"})

	LinesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "trajectory_lines_dropped_total",
		Help:      "Total number of malformed trajectory lines dropped",
	})

	BatchesFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "track_point_batches_flushed_total",
		Help:      "Total number of track point bulk inserts",
	})

	PointsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "track_points_inserted_total",
		Help:      "Total number of track points inserted",
	})

	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geolife",
		Name:      "batch_flush_duration_seconds",
		Help:      "Duration of one track point bulk insert",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	LabelsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "labels_matched_total",
		Help:      "Total number of activities assigned a transportation mode",
	})

	Anomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "user_anomalies_total",
		Help:      "Total number of user-level reconciliation anomalies, by kind",
	}, []string{"kind"})

	VerificationMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolife",
		Name:      "verification_mismatches_total",
		Help:      "Total number of persisted modes disagreeing with the labels",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geolife",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
