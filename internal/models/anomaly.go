package models

import (
	"encoding/json"
	"time"
)

// Method identifies which detection strategy produced a result
type Method string

const (
	MethodZScore          Method = "z-score"
	MethodMovingAverage   Method = "moving_average"
	MethodIsolationForest Method = "isolation_forest"
	MethodLOF             Method = "lof"
)

// AllMethods lists every detection method in a stable order
var AllMethods = []Method{MethodZScore, MethodMovingAverage, MethodIsolationForest, MethodLOF}

// Severity is the coarse urgency of a detection, fixed at creation time
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// FeatureNames is the fixed feature order used by every detector:
// [cpu, ram, disk, net_sent, net_recv]
var FeatureNames = []string{"cpu", "ram", "disk", "net_sent", "net_recv"}

// AnomalousMetric describes one feature that exceeded a detector's threshold.
// The statistic fields are method-specific: z-score fills ZScore/Mean/Std,
// moving-average fills Deviation/MovingAvg/MovingStd.
type AnomalousMetric struct {
	Metric    string   `json:"metric"`
	Value     float64  `json:"value"`
	ZScore    *float64 `json:"z_score,omitempty"`
	Mean      *float64 `json:"mean,omitempty"`
	Std       *float64 `json:"std,omitempty"`
	Deviation *float64 `json:"deviation,omitempty"`
	MovingAvg *float64 `json:"moving_avg,omitempty"`
	MovingStd *float64 `json:"moving_std,omitempty"`
}

// MetricsSnapshot is the raw feature values of a record flagged by a
// model-based detector, nulls preserved
type MetricsSnapshot struct {
	CPU     *float64 `json:"cpu"`
	RAM     *float64 `json:"ram"`
	Disk    *float64 `json:"disk"`
	NetSent *float64 `json:"net_sent"`
	NetRecv *float64 `json:"net_recv"`
}

// Detection is one anomaly found during a detection pass, before it is
// persisted. The envelope fields are common to every method; statistical
// methods carry AnomalousMetrics, model-based methods carry Snapshot and
// Score (more negative = more anomalous).
type Detection struct {
	Timestamp        time.Time         `json:"timestamp"`
	DeviceID         int64             `json:"device_id"`
	Method           Method            `json:"method"`
	Severity         Severity          `json:"severity"`
	AnomalousMetrics []AnomalousMetric `json:"anomalous_metrics,omitempty"`
	Snapshot         *MetricsSnapshot  `json:"metrics_snapshot,omitempty"`
	Score            *float64          `json:"anomaly_score,omitempty"`
}

// AnomalyEvent is a persisted anomaly. Timestamp is the triggering metric
// record's timestamp, not detection time. Details holds the serialized
// Detection payload; consumers must tolerate method-specific shapes.
type AnomalyEvent struct {
	ID           int64           `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	DeviceID     int64           `json:"device_id"`
	Method       Method          `json:"method"`
	Severity     Severity        `json:"severity"`
	Details      json.RawMessage `json:"details"`
	Acknowledged bool            `json:"acknowledged"`
}

// AnomalySummary is the live diagnostic view for one device: what the
// detectors would flag right now, independent of what the ledger holds
type AnomalySummary struct {
	DeviceID       int64                  `json:"device_id"`
	TotalAnomalies int                    `json:"total_anomalies"`
	HighSeverity   int                    `json:"high_severity_count"`
	MediumSeverity int                    `json:"medium_severity_count"`
	ByMethod       map[Method]int         `json:"by_method"`
	Detailed       map[Method][]Detection `json:"detailed_anomalies"`
}
