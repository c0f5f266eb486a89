package anomaly

import (
	"math"

	"netsentry/internal/models"
)

// MovingAverageDetector compares each record against the mean and standard
// deviation of the Window records immediately preceding it. It catches local
// spikes and drift that the whole-window z-score dilutes; the two statistical
// detectors are complementary, not redundant.
type MovingAverageDetector struct {
	Window    int     // sliding baseline size
	Threshold float64 // flag condition, |deviation| above this
	High      float64 // high severity, any |deviation| above this
}

// Detect requires at least Window+5 records so the first evaluated points
// have a few successors worth of context; below that it yields nothing.
func (d *MovingAverageDetector) Detect(records []models.MetricRecord) []models.Detection {
	if len(records) < d.Window+5 {
		return nil
	}

	features := ExtractFeatures(records)
	var detections []models.Detection

	for i := d.Window; i < len(features); i++ {
		window := features[i-d.Window : i]
		current := features[i]

		mean, std := columnStats(window)
		for j := range std {
			if std[j] == 0 {
				std[j] = 1
			}
		}

		var flagged []models.AnomalousMetric
		maxDev := 0.0
		for j, v := range current {
			dev := math.Abs((v - mean[j]) / std[j])
			if dev > d.Threshold {
				flagged = append(flagged, models.AnomalousMetric{
					Metric:    models.FeatureNames[j],
					Value:     v,
					Deviation: ptr(dev),
					MovingAvg: ptr(mean[j]),
					MovingStd: ptr(std[j]),
				})
				if dev > maxDev {
					maxDev = dev
				}
			}
		}

		if len(flagged) > 0 {
			severity := models.SeverityMedium
			if maxDev > d.High {
				severity = models.SeverityHigh
			}
			detections = append(detections, models.Detection{
				Timestamp:        records[i].Timestamp,
				DeviceID:         records[i].DeviceID,
				Method:           models.MethodMovingAverage,
				Severity:         severity,
				AnomalousMetrics: flagged,
			})
		}
	}

	return detections
}
