package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"netsentry/internal/metrics"
	"netsentry/internal/models"
)

// DeviceRegistry is the device enumeration the scanner iterates
type DeviceRegistry interface {
	ListDeviceIDs(ctx context.Context) ([]int64, error)
	GetDeviceName(ctx context.Context, deviceID int64) (string, error)
}

// Ledger persists detections with the built-in dedup check
type Ledger interface {
	SaveEvent(ctx context.Context, det models.Detection, dedupWindow time.Duration) (bool, error)
}

// Detector runs all detection methods for one device
type Detector interface {
	DetectAll(ctx context.Context, deviceID int64) (map[models.Method][]models.Detection, error)
}

// Scanner is the periodic anomaly sweep: every Interval it iterates all
// known devices, runs the engine, and persists whatever the dedup window
// lets through. A failing device is skipped; a run of MaxConsecutiveErrors
// whole-pass failures stops the loop rather than retrying forever.
type Scanner struct {
	registry DeviceRegistry
	ledger   Ledger
	detector Detector

	Interval             time.Duration
	DedupWindow          time.Duration
	MaxConsecutiveErrors int

	// OnEvent, when set, is invoked for every event that was actually
	// persisted (after dedup). Used to feed the live WebSocket stream
	// and the summary cache.
	OnEvent func(det models.Detection)
}

// New creates a scanner with the given collaborators
func New(registry DeviceRegistry, ledger Ledger, detector Detector, interval, dedupWindow time.Duration, maxErrors int) *Scanner {
	return &Scanner{
		registry:             registry,
		ledger:               ledger,
		detector:             detector,
		Interval:             interval,
		DedupWindow:          dedupWindow,
		MaxConsecutiveErrors: maxErrors,
	}
}

// Run blocks, sweeping all devices every Interval until ctx is cancelled or
// too many consecutive passes fail
func (s *Scanner) Run(ctx context.Context) error {
	log.Printf("[SCHED] anomaly scanner started (interval: %v)", s.Interval)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		select {
		case <-ctx.Done():
			log.Println("[SCHED] anomaly scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunPass(ctx); err != nil {
				consecutive++
				log.Printf("[SCHED] scan pass failed (%d/%d consecutive): %v",
					consecutive, s.MaxConsecutiveErrors, err)
				if consecutive >= s.MaxConsecutiveErrors {
					return fmt.Errorf("scan loop aborted after %d consecutive failures: %w", consecutive, err)
				}
				continue
			}
			consecutive = 0
		}
	}
}

// RunPass sweeps every known device once. A per-device failure is logged
// and skipped; only a failure to enumerate devices fails the whole pass.
func (s *Scanner) RunPass(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.ScanDuration.Observe(time.Since(started).Seconds())
	}()

	deviceIDs, err := s.registry.ListDeviceIDs(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	metrics.DevicesMonitored.Set(float64(len(deviceIDs)))

	stored := 0
	for _, deviceID := range deviceIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.scanDevice(ctx, deviceID)
		if err != nil {
			metrics.ScanErrors.Inc()
			name := s.deviceName(ctx, deviceID)
			log.Printf("[SCHED] error analyzing device %s: %v", name, err)
			continue
		}
		stored += n
	}

	if stored > 0 {
		log.Printf("[SCHED] pass complete: %d new anomalies across %d devices", stored, len(deviceIDs))
	}
	return nil
}

func (s *Scanner) scanDevice(ctx context.Context, deviceID int64) (int, error) {
	results, err := s.detector.DetectAll(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, detections := range results {
		for _, det := range detections {
			ok, err := s.ledger.SaveEvent(ctx, det, s.DedupWindow)
			if err != nil {
				return stored, err
			}
			if !ok {
				metrics.AnomaliesSuppressed.WithLabelValues(string(det.Method)).Inc()
				continue
			}
			metrics.AnomaliesDetected.WithLabelValues(string(det.Method), string(det.Severity)).Inc()
			stored++
			log.Printf("[SCHED] anomaly: device=%d method=%s severity=%s ts=%s",
				det.DeviceID, det.Method, det.Severity, det.Timestamp.Format(time.RFC3339))
			if s.OnEvent != nil {
				s.OnEvent(det)
			}
		}
	}
	return stored, nil
}

func (s *Scanner) deviceName(ctx context.Context, deviceID int64) string {
	name, err := s.registry.GetDeviceName(ctx, deviceID)
	if err != nil {
		return fmt.Sprintf("Device %d", deviceID)
	}
	return name
}
