package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netsentry/internal/models"
)

type pingRow struct {
	ID        int64          `db:"id"`
	Timestamp string         `db:"timestamp"`
	DeviceID  int64          `db:"device_id"`
	IP        sql.NullString `db:"ip"`
	Status    int            `db:"status"`
	LatencyMS *float64       `db:"latency_ms"`
}

func (r pingRow) toModel() (models.PingLog, error) {
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return models.PingLog{}, fmt.Errorf("ping %d has bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return models.PingLog{
		ID:        r.ID,
		Timestamp: ts,
		DeviceID:  r.DeviceID,
		IP:        r.IP.String,
		Online:    r.Status != 0,
		LatencyMS: r.LatencyMS,
	}, nil
}

// SavePing appends one reachability probe result
func (s *Store) SavePing(ctx context.Context, p models.PingLog) error {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	status := 0
	if p.Online {
		status = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ping_logs (timestamp, device_id, ip, status, latency_ms)
		VALUES (?, ?, ?, ?, ?)`,
		formatTime(ts), p.DeviceID, p.IP, status, p.LatencyMS)
	if err != nil {
		return fmt.Errorf("save ping for device %d: %w", p.DeviceID, err)
	}
	return nil
}

// RecentPings returns the latest probe results, newest first
func (s *Store) RecentPings(ctx context.Context, limit int) ([]models.PingLog, error) {
	var rows []pingRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM ping_logs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent pings: %w", err)
	}

	pings := make([]models.PingLog, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		pings = append(pings, p)
	}
	return pings, nil
}
