package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetricsReceived counts ingested metric samples
	MetricsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netsentry_metrics_received_total",
			Help: "Total number of metric samples ingested",
		},
	)

	// PingsReceived counts ingested reachability results
	PingsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netsentry_pings_received_total",
			Help: "Total number of ping results ingested",
		},
	)

	// AnomaliesDetected counts persisted anomaly events by method and severity
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsentry_anomalies_detected_total",
			Help: "Total number of anomaly events persisted",
		},
		[]string{"method", "severity"},
	)

	// AnomaliesSuppressed counts detections dropped by the dedup window
	AnomaliesSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsentry_anomalies_suppressed_total",
			Help: "Total number of detections suppressed as recent duplicates",
		},
		[]string{"method"},
	)

	// ScanDuration observes whole-pass scan latency
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netsentry_scan_duration_seconds",
			Help:    "Duration of full anomaly scan passes",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// ScanErrors counts per-device scan failures
	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netsentry_scan_errors_total",
			Help: "Total number of per-device scan failures",
		},
	)

	// DevicesMonitored tracks the known device count at the last pass
	DevicesMonitored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netsentry_devices_monitored",
			Help: "Number of devices covered by the last scan pass",
		},
	)

	// CacheHits counts summary cache hits and misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsentry_summary_cache_requests_total",
			Help: "Summary cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
