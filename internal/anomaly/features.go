package anomaly

import (
	"math"

	"netsentry/internal/models"
)

// ExtractFeatures converts metric records into the fixed-order feature
// matrix [cpu, ram, disk, net_sent, net_recv], one row per record in input
// order. Missing values are coerced to 0. Empty input yields an empty matrix.
func ExtractFeatures(records []models.MetricRecord) [][]float64 {
	features := make([][]float64, 0, len(records))
	for _, r := range records {
		features = append(features, []float64{
			deref(r.CPU),
			deref(r.RAM),
			deref(r.Disk),
			deref(r.NetSent),
			deref(r.NetRecv),
		})
	}
	return features
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func ptr(v float64) *float64 {
	return &v
}

// columnStats returns per-column mean and population standard deviation
func columnStats(features [][]float64) (mean, std []float64) {
	if len(features) == 0 {
		return nil, nil
	}
	cols := len(features[0])
	mean = make([]float64, cols)
	std = make([]float64, cols)

	for _, row := range features {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(features))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range features {
		for j, v := range row {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}
	return mean, std
}

// snapshotOf preserves the raw (possibly null) feature values of a record
func snapshotOf(r models.MetricRecord) *models.MetricsSnapshot {
	return &models.MetricsSnapshot{
		CPU:     r.CPU,
		RAM:     r.RAM,
		Disk:    r.Disk,
		NetSent: r.NetSent,
		NetRecv: r.NetRecv,
	}
}
