package anomaly

import (
	"testing"
	"time"

	"netsentry/internal/models"
)

// clusterWithOutliers builds a tight grid of ordinary samples followed by
// three records far outside it on every feature
func clusterWithOutliers(deviceID int64) []models.MetricRecord {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.MetricRecord, 0, 60)
	for i := 0; i < 57; i++ {
		records = append(records, models.MetricRecord{
			ID:        int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			DeviceID:  deviceID,
			CPU:       ptr(20 + float64(i%5)),
			RAM:       ptr(40 + float64(i%7)),
			Disk:      ptr(60 + float64(i%3)),
			NetSent:   ptr(1000 + 10*float64(i%10)),
			NetRecv:   ptr(2000 + 10*float64(i%4)),
		})
	}
	for i := 57; i < 60; i++ {
		records = append(records, models.MetricRecord{
			ID:        int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			DeviceID:  deviceID,
			CPU:       ptr(95 + float64(i-57)),
			RAM:       ptr(97.0),
			Disk:      ptr(99.0),
			NetSent:   ptr(100000.0),
			NetRecv:   ptr(200000.0),
		})
	}
	return records
}

func detectionTimes(detections []models.Detection) map[time.Time]bool {
	times := make(map[time.Time]bool, len(detections))
	for _, d := range detections {
		times[d.Timestamp] = true
	}
	return times
}

func TestIsolationForestFlagsOutliers(t *testing.T) {
	records := clusterWithOutliers(4)
	detections := NewIsolationForestDetector(0.1, -0.5, 50).Detect(records)

	if len(detections) == 0 {
		t.Fatal("expected detections, got none")
	}
	if len(detections) > 6 {
		t.Fatalf("got %d detections, contamination 0.1 over 60 records should flag at most 6", len(detections))
	}

	flagged := detectionTimes(detections)
	for i := 57; i < 60; i++ {
		if !flagged[records[i].Timestamp] {
			t.Errorf("outlier record %d not flagged", i)
		}
	}

	for _, det := range detections {
		if det.Method != models.MethodIsolationForest {
			t.Errorf("method = %q, want %q", det.Method, models.MethodIsolationForest)
		}
		if det.Score == nil {
			t.Fatal("detection missing anomaly score")
		}
		if det.Snapshot == nil {
			t.Fatal("detection missing metrics snapshot")
		}
	}
}

func TestIsolationForestDeterministic(t *testing.T) {
	records := clusterWithOutliers(1)

	a := NewIsolationForestDetector(0.1, -0.5, 50).Detect(records)
	b := NewIsolationForestDetector(0.1, -0.5, 50).Detect(records)

	if len(a) != len(b) {
		t.Fatalf("fresh detectors disagree: %d vs %d detections", len(a), len(b))
	}
	for i := range a {
		if !a[i].Timestamp.Equal(b[i].Timestamp) || *a[i].Score != *b[i].Score {
			t.Errorf("detection %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestIsolationForestFitsOnce(t *testing.T) {
	records := clusterWithOutliers(1)
	d := NewIsolationForestDetector(0.1, -0.5, 50)

	first := d.Detect(records)
	if !d.Trained {
		t.Fatal("detector not marked trained after Detect")
	}
	second := d.Detect(records)

	if len(first) != len(second) {
		t.Fatalf("repeat detection on same instance disagrees: %d vs %d", len(first), len(second))
	}
}

func TestIsolationForestBelowMinSamples(t *testing.T) {
	records := clusterWithOutliers(1)[:49]
	if detections := NewIsolationForestDetector(0.1, -0.5, 50).Detect(records); detections != nil {
		t.Fatalf("expected nil below minimum samples, got %d detections", len(detections))
	}
}
