package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"netsentry/internal/models"
)

type anomalyRow struct {
	ID           int64  `db:"id"`
	Timestamp    string `db:"timestamp"`
	DeviceID     int64  `db:"device_id"`
	Method       string `db:"detection_method"`
	Severity     string `db:"severity"`
	Details      []byte `db:"details"`
	Acknowledged bool   `db:"acknowledged"`
}

func (r anomalyRow) toModel() (models.AnomalyEvent, error) {
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return models.AnomalyEvent{}, fmt.Errorf("anomaly %d has bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return models.AnomalyEvent{
		ID:           r.ID,
		Timestamp:    ts,
		DeviceID:     r.DeviceID,
		Method:       models.Method(r.Method),
		Severity:     models.Severity(r.Severity),
		Details:      json.RawMessage(r.Details),
		Acknowledged: r.Acknowledged,
	}, nil
}

// SaveEvent persists a detection unless an event for the same device and
// method already exists within the trailing dedup window ending at the
// detection's timestamp. The check and insert run as one statement, so
// concurrent writers cannot both slip past the window check. Returns whether
// the event was stored (false = suppressed as a duplicate).
//
// Dedup is deliberately coarse: it keys on device+method+recency only, not
// on which metric was anomalous, bounding alert volume during sustained
// incidents.
func (s *Store) SaveEvent(ctx context.Context, det models.Detection, dedupWindow time.Duration) (bool, error) {
	details, err := json.Marshal(det)
	if err != nil {
		return false, fmt.Errorf("marshal detection: %w", err)
	}

	ts := formatTime(det.Timestamp)
	cutoff := formatTime(det.Timestamp.Add(-dedupWindow))

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO anomalies (timestamp, device_id, detection_method, severity, details)
		SELECT ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM anomalies
			WHERE device_id = ? AND detection_method = ?
			  AND timestamp > ? AND timestamp <= ?
		)`,
		ts, det.DeviceID, string(det.Method), string(det.Severity), string(details),
		det.DeviceID, string(det.Method), cutoff, ts)
	if err != nil {
		return false, fmt.Errorf("save anomaly for device %d: %w", det.DeviceID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save anomaly rows affected: %w", err)
	}
	return n > 0, nil
}

// ListEvents returns persisted anomalies newest-first, optionally filtered
// by device. deviceID nil means all devices.
func (s *Store) ListEvents(ctx context.Context, limit int, deviceID *int64) ([]models.AnomalyEvent, error) {
	var rows []anomalyRow
	var err error
	if deviceID != nil {
		err = s.db.SelectContext(ctx, &rows,
			"SELECT * FROM anomalies WHERE device_id = ? ORDER BY id DESC LIMIT ?", *deviceID, limit)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			"SELECT * FROM anomalies ORDER BY id DESC LIMIT ?", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}

	events := make([]models.AnomalyEvent, 0, len(rows))
	for _, r := range rows {
		ev, err := r.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Acknowledge flips an event's acknowledged flag. ErrNotFound when no such
// event exists; the ledger is unchanged in that case.
func (s *Store) Acknowledge(ctx context.Context, eventID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE anomalies SET acknowledged = 1 WHERE id = ?", eventID)
	if err != nil {
		return fmt.Errorf("acknowledge anomaly %d: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acknowledge rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("anomaly %d: %w", eventID, ErrNotFound)
	}
	return nil
}

// PurgeOlderThan removes events older than the given age. Returns the
// number removed.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return s.PurgeBefore(ctx, time.Now().Add(-age))
}

// PurgeBefore removes events strictly older than the cutoff; events exactly
// at the boundary are retained
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM anomalies WHERE timestamp < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge anomalies: %w", err)
	}
	return res.RowsAffected()
}
