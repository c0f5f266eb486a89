package storage

import (
	"context"
	"fmt"
	"time"

	"netsentry/internal/models"
)

type metricRow struct {
	ID        int64    `db:"id"`
	Timestamp string   `db:"timestamp"`
	DeviceID  int64    `db:"device_id"`
	CPU       *float64 `db:"cpu"`
	RAM       *float64 `db:"ram"`
	Disk      *float64 `db:"disk"`
	NetSent   *float64 `db:"net_sent"`
	NetRecv   *float64 `db:"net_recv"`
}

func (r metricRow) toModel() (models.MetricRecord, error) {
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return models.MetricRecord{}, fmt.Errorf("metric %d has bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return models.MetricRecord{
		ID:        r.ID,
		Timestamp: ts,
		DeviceID:  r.DeviceID,
		CPU:       r.CPU,
		RAM:       r.RAM,
		Disk:      r.Disk,
		NetSent:   r.NetSent,
		NetRecv:   r.NetRecv,
	}, nil
}

// SaveMetrics appends one metric sample. A zero timestamp is stamped with
// the current time.
func (s *Store) SaveMetrics(ctx context.Context, rec models.MetricRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics_logs (timestamp, device_id, cpu, ram, disk, net_sent, net_recv)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		formatTime(ts), rec.DeviceID, rec.CPU, rec.RAM, rec.Disk, rec.NetSent, rec.NetRecv)
	if err != nil {
		return fmt.Errorf("save metrics for device %d: %w", rec.DeviceID, err)
	}
	return nil
}

// FetchRecords returns a device's samples newer than since, ascending by
// timestamp. This is the detection engine's lookback query.
func (s *Store) FetchRecords(ctx context.Context, deviceID int64, since time.Time) ([]models.MetricRecord, error) {
	var rows []metricRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM metrics_logs
		WHERE device_id = ? AND timestamp > ?
		ORDER BY timestamp ASC`,
		deviceID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("fetch metrics for device %d: %w", deviceID, err)
	}

	records := make([]models.MetricRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// RecentMetrics returns the latest samples across all devices, newest first
func (s *Store) RecentMetrics(ctx context.Context, limit int) ([]models.MetricRecord, error) {
	var rows []metricRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM metrics_logs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent metrics: %w", err)
	}

	records := make([]models.MetricRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
