package anomaly

import (
	"math"

	"netsentry/internal/models"
)

// ZScoreDetector flags records whose features deviate from the whole-window
// mean by more than Threshold standard deviations. A zero standard deviation
// is substituted with 1, so a constant feature is never flagged.
type ZScoreDetector struct {
	Threshold  float64 // flag condition, |z| above this
	High       float64 // high severity, any |z| above this
	MinSamples int     // below this the window is a quiescent no-op
}

// Detect evaluates every record against the window-wide baseline. One
// Detection per record, aggregating all of that record's exceeding features.
func (d *ZScoreDetector) Detect(records []models.MetricRecord) []models.Detection {
	if len(records) < d.MinSamples {
		return nil
	}

	features := ExtractFeatures(records)
	mean, std := columnStats(features)
	for j := range std {
		if std[j] == 0 {
			std[j] = 1
		}
	}

	var detections []models.Detection
	for i, row := range features {
		var flagged []models.AnomalousMetric
		maxZ := 0.0
		for j, v := range row {
			z := math.Abs((v - mean[j]) / std[j])
			if z > d.Threshold {
				flagged = append(flagged, models.AnomalousMetric{
					Metric: models.FeatureNames[j],
					Value:  v,
					ZScore: ptr(z),
					Mean:   ptr(mean[j]),
					Std:    ptr(std[j]),
				})
				if z > maxZ {
					maxZ = z
				}
			}
		}

		if len(flagged) > 0 {
			severity := models.SeverityMedium
			if maxZ > d.High {
				severity = models.SeverityHigh
			}
			detections = append(detections, models.Detection{
				Timestamp:        records[i].Timestamp,
				DeviceID:         records[i].DeviceID,
				Method:           models.MethodZScore,
				Severity:         severity,
				AnomalousMetrics: flagged,
			})
		}
	}

	return detections
}
