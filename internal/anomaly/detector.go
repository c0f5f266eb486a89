package anomaly

import (
	"context"
	"fmt"
	"log"
	"time"

	"netsentry/internal/models"
)

// MetricSource is the read side of the metric store consumed by the engine
type MetricSource interface {
	FetchRecords(ctx context.Context, deviceID int64, since time.Time) ([]models.MetricRecord, error)
}

// Config carries the engine tuning. Zero values are not usable; start from
// DefaultConfig and override.
type Config struct {
	Lookback         time.Duration
	ZScoreThreshold  float64
	ZScoreHigh       float64
	MinZScoreSamples int
	MovingWindow     int
	MovingThreshold  float64
	MovingHigh       float64
	MinModelSamples  int
	Contamination    float64
	ModelScoreHigh   float64
}

// DefaultConfig mirrors the shipped thresholds
func DefaultConfig() Config {
	return Config{
		Lookback:         24 * time.Hour,
		ZScoreThreshold:  3.0,
		ZScoreHigh:       4.0,
		MinZScoreSamples: 10,
		MovingWindow:     10,
		MovingThreshold:  2.0,
		MovingHigh:       3.0,
		MinModelSamples:  50,
		Contamination:    0.1,
		ModelScoreHigh:   -0.5,
	}
}

// Engine runs all four detection methods over a device's lookback window.
// It holds no per-device state: model-based detectors are constructed fresh
// each cycle, so one device's fitted model never leaks into another's pass.
type Engine struct {
	source MetricSource
	cfg    Config
	now    func() time.Time
}

// NewEngine creates a detection engine backed by the given metric source
func NewEngine(source MetricSource, cfg Config) *Engine {
	return &Engine{source: source, cfg: cfg, now: time.Now}
}

// DetectAll fetches the lookback window for a device and runs every method.
// An unreachable store surfaces as an error; an empty window yields an empty
// result map. Per-method model failures are logged and swallowed so one
// failing detector never blocks the others.
func (e *Engine) DetectAll(ctx context.Context, deviceID int64) (map[models.Method][]models.Detection, error) {
	since := e.now().Add(-e.cfg.Lookback)
	records, err := e.source.FetchRecords(ctx, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch records for device %d: %w", deviceID, err)
	}

	results := make(map[models.Method][]models.Detection, len(models.AllMethods))
	if len(records) == 0 {
		return results, nil
	}

	zscore := &ZScoreDetector{
		Threshold:  e.cfg.ZScoreThreshold,
		High:       e.cfg.ZScoreHigh,
		MinSamples: e.cfg.MinZScoreSamples,
	}
	moving := &MovingAverageDetector{
		Window:    e.cfg.MovingWindow,
		Threshold: e.cfg.MovingThreshold,
		High:      e.cfg.MovingHigh,
	}

	results[models.MethodZScore] = zscore.Detect(records)
	results[models.MethodMovingAverage] = moving.Detect(records)
	results[models.MethodIsolationForest] = e.runModel(models.MethodIsolationForest, records, func(r []models.MetricRecord) []models.Detection {
		return NewIsolationForestDetector(e.cfg.Contamination, e.cfg.ModelScoreHigh, e.cfg.MinModelSamples).Detect(r)
	})
	results[models.MethodLOF] = e.runModel(models.MethodLOF, records, func(r []models.MetricRecord) []models.Detection {
		return NewLOFDetector(e.cfg.Contamination, e.cfg.ModelScoreHigh, e.cfg.MinModelSamples).Detect(r)
	})

	return results, nil
}

// runModel isolates a model-based detector: a fitting or scoring panic is
// logged and yields an empty result for that method only
func (e *Engine) runModel(method models.Method, records []models.MetricRecord, detect func([]models.MetricRecord) []models.Detection) (out []models.Detection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ANOMALY] %s detector failed: %v", method, r)
			out = nil
		}
	}()
	return detect(records)
}

// Summarize recomputes all detections for a device and aggregates counts.
// It is a live diagnostic view and never reads the persisted ledger, so it
// may disagree with what a scheduled scan actually stored.
func (e *Engine) Summarize(ctx context.Context, deviceID int64) (*models.AnomalySummary, error) {
	all, err := e.DetectAll(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	summary := &models.AnomalySummary{
		DeviceID: deviceID,
		ByMethod: make(map[models.Method]int, len(all)),
		Detailed: all,
	}
	for method, detections := range all {
		summary.ByMethod[method] = len(detections)
		summary.TotalAnomalies += len(detections)
		for _, det := range detections {
			if det.Severity == models.SeverityHigh {
				summary.HighSeverity++
			}
		}
	}
	summary.MediumSeverity = summary.TotalAnomalies - summary.HighSeverity

	return summary, nil
}
