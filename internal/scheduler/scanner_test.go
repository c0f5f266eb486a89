package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"netsentry/internal/models"
)

type fakeRegistry struct {
	ids     []int64
	listErr error
}

func (f *fakeRegistry) ListDeviceIDs(context.Context) ([]int64, error) {
	return f.ids, f.listErr
}

func (f *fakeRegistry) GetDeviceName(_ context.Context, id int64) (string, error) {
	return "dev", nil
}

type fakeLedger struct {
	saved    []models.Detection
	suppress bool
	err      error
}

func (f *fakeLedger) SaveEvent(_ context.Context, det models.Detection, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.suppress {
		return false, nil
	}
	f.saved = append(f.saved, det)
	return true, nil
}

type fakeDetector struct {
	results map[int64]map[models.Method][]models.Detection
	errors  map[int64]error
}

func (f *fakeDetector) DetectAll(_ context.Context, deviceID int64) (map[models.Method][]models.Detection, error) {
	if err := f.errors[deviceID]; err != nil {
		return nil, err
	}
	return f.results[deviceID], nil
}

func detection(deviceID int64) models.Detection {
	return models.Detection{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		DeviceID:  deviceID,
		Method:    models.MethodZScore,
		Severity:  models.SeverityMedium,
	}
}

func TestRunPassPersistsDetections(t *testing.T) {
	registry := &fakeRegistry{ids: []int64{1, 2}}
	ledger := &fakeLedger{}
	detector := &fakeDetector{
		results: map[int64]map[models.Method][]models.Detection{
			1: {models.MethodZScore: {detection(1)}},
			2: {models.MethodLOF: {detection(2)}},
		},
	}

	var notified []models.Detection
	s := New(registry, ledger, detector, time.Minute, 5*time.Minute, 5)
	s.OnEvent = func(det models.Detection) { notified = append(notified, det) }

	if err := s.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error: %v", err)
	}
	if len(ledger.saved) != 2 {
		t.Fatalf("saved %d events, want 2", len(ledger.saved))
	}
	if len(notified) != 2 {
		t.Fatalf("OnEvent fired %d times, want 2", len(notified))
	}
}

func TestRunPassSkipsFailingDevice(t *testing.T) {
	registry := &fakeRegistry{ids: []int64{1, 2, 3}}
	ledger := &fakeLedger{}
	detector := &fakeDetector{
		results: map[int64]map[models.Method][]models.Detection{
			1: {models.MethodZScore: {detection(1)}},
			3: {models.MethodZScore: {detection(3)}},
		},
		errors: map[int64]error{2: errors.New("corrupt window")},
	}

	s := New(registry, ledger, detector, time.Minute, 5*time.Minute, 5)

	// Device 2 fails but the pass itself succeeds and covers device 3
	if err := s.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error: %v", err)
	}
	if len(ledger.saved) != 2 {
		t.Fatalf("saved %d events, want 2 (devices 1 and 3)", len(ledger.saved))
	}
}

func TestRunPassSuppressedEventsSkipCallback(t *testing.T) {
	registry := &fakeRegistry{ids: []int64{1}}
	ledger := &fakeLedger{suppress: true}
	detector := &fakeDetector{
		results: map[int64]map[models.Method][]models.Detection{
			1: {models.MethodZScore: {detection(1)}},
		},
	}

	called := false
	s := New(registry, ledger, detector, time.Minute, 5*time.Minute, 5)
	s.OnEvent = func(models.Detection) { called = true }

	if err := s.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error: %v", err)
	}
	if called {
		t.Fatal("OnEvent fired for a suppressed duplicate")
	}
}

func TestRunPassFailsWhenEnumerationFails(t *testing.T) {
	registry := &fakeRegistry{listErr: errors.New("database gone")}
	s := New(registry, &fakeLedger{}, &fakeDetector{}, time.Minute, 5*time.Minute, 5)

	if err := s.RunPass(context.Background()); err == nil {
		t.Fatal("expected RunPass to fail when devices cannot be listed")
	}
}

func TestRunAbortsAfterConsecutiveFailures(t *testing.T) {
	registry := &fakeRegistry{listErr: errors.New("database gone")}
	s := New(registry, &fakeLedger{}, &fakeDetector{}, time.Millisecond, 5*time.Minute, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Run(ctx)
	if err == nil {
		t.Fatal("expected Run to return an error")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("Run did not abort on its own before the test deadline")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	registry := &fakeRegistry{ids: nil}
	s := New(registry, &fakeLedger{}, &fakeDetector{}, time.Millisecond, 5*time.Minute, 5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
