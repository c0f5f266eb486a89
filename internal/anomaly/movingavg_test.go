package anomaly

import (
	"testing"

	"netsentry/internal/models"
)

func newMovingAverageDetector() *MovingAverageDetector {
	return &MovingAverageDetector{Window: 10, Threshold: 2.0, High: 3.0}
}

func TestMovingAverageFlagsLevelShift(t *testing.T) {
	// Flat at 10 for 15 samples, then a jump to 90. The first elevated
	// sample deviates hugely from its flat baseline; the second one has
	// the first jump already inside its window, diluting the deviation.
	values := make([]float64, 0, 20)
	for i := 0; i < 15; i++ {
		values = append(values, 10)
	}
	for i := 0; i < 5; i++ {
		values = append(values, 90)
	}
	records := seriesRecords(3, values)

	detections := newMovingAverageDetector().Detect(records)
	if len(detections) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(detections))
	}

	first := detections[0]
	if first.Severity != models.SeverityHigh {
		t.Errorf("first detection severity = %q, want high", first.Severity)
	}
	if !first.Timestamp.Equal(records[15].Timestamp) {
		t.Errorf("first detection at %v, want the jump record's %v", first.Timestamp, records[15].Timestamp)
	}
	if len(first.AnomalousMetrics) != 1 || first.AnomalousMetrics[0].Metric != "cpu" {
		t.Fatalf("anomalous metrics = %+v, want exactly cpu", first.AnomalousMetrics)
	}
	if first.AnomalousMetrics[0].Deviation == nil || *first.AnomalousMetrics[0].Deviation <= 3.0 {
		t.Errorf("deviation = %v, want above 3", first.AnomalousMetrics[0].Deviation)
	}

	second := detections[1]
	if second.Severity != models.SeverityMedium {
		t.Errorf("second detection severity = %q, want medium", second.Severity)
	}
	if !second.Timestamp.Equal(records[16].Timestamp) {
		t.Errorf("second detection at %v, want %v", second.Timestamp, records[16].Timestamp)
	}
}

func TestMovingAverageSteadyRampNotFlagged(t *testing.T) {
	// A constant-slope ramp keeps each point about 1.9 deviations from
	// its trailing window, under the threshold
	values := make([]float64, 0, 30)
	for i := 0; i < 30; i++ {
		values = append(values, 10+2*float64(i))
	}

	if detections := newMovingAverageDetector().Detect(seriesRecords(1, values)); len(detections) != 0 {
		t.Fatalf("steady ramp produced %d detections", len(detections))
	}
}

func TestMovingAverageNeedsWindowPlusFive(t *testing.T) {
	// 14 records is one short of window+5
	values := make([]float64, 0, 14)
	for i := 0; i < 13; i++ {
		values = append(values, 10)
	}
	values = append(values, 500)

	if detections := newMovingAverageDetector().Detect(seriesRecords(1, values)); detections != nil {
		t.Fatalf("expected nil below window+5 records, got %d detections", len(detections))
	}
}
