package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"netsentry/internal/models"
)

type deviceRow struct {
	ID         int64          `db:"id"`
	Name       string         `db:"name"`
	MAC        string         `db:"mac"`
	DeviceType sql.NullString `db:"device_type"`
	LastSeen   sql.NullString `db:"last_seen"`
	LastIP     sql.NullString `db:"last_ip"`
}

func (r deviceRow) toModel() models.Device {
	d := models.Device{
		ID:         r.ID,
		Name:       r.Name,
		MAC:        r.MAC,
		DeviceType: r.DeviceType.String,
		LastIP:     r.LastIP.String,
	}
	if r.LastSeen.Valid {
		if t, err := parseTime(r.LastSeen.String); err == nil {
			d.LastSeen = &t
		}
	}
	return d
}

// GetOrCreateDevice looks a device up by MAC, registering it when unknown.
// Name defaults to the MAC when empty.
func (s *Store) GetOrCreateDevice(ctx context.Context, mac, name, deviceType string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM devices WHERE mac = ?", mac)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup device %s: %w", mac, err)
	}

	if name == "" {
		name = mac
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO devices (name, mac, device_type) VALUES (?, ?, ?)",
		name, mac, deviceType)
	if err != nil {
		return 0, fmt.Errorf("create device %s: %w", mac, err)
	}
	return res.LastInsertId()
}

// UpdateDeviceSeen stamps a device's last contact time and IP
func (s *Store) UpdateDeviceSeen(ctx context.Context, deviceID int64, ip string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE devices SET last_seen = ?, last_ip = ? WHERE id = ?",
		formatTime(time.Now()), ip, deviceID)
	if err != nil {
		return fmt.Errorf("update device %d: %w", deviceID, err)
	}
	return nil
}

// ListDevices returns all registered devices
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	var rows []deviceRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM devices ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	devices := make([]models.Device, 0, len(rows))
	for _, r := range rows {
		devices = append(devices, r.toModel())
	}
	return devices, nil
}

// ListDeviceIDs returns the ids of all registered devices
func (s *Store) ListDeviceIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM devices ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list device ids: %w", err)
	}
	return ids, nil
}

// GetDeviceName returns a device's display name, ErrNotFound when unknown
func (s *Store) GetDeviceName(ctx context.Context, deviceID int64) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, "SELECT name FROM devices WHERE id = ?", deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("device %d: %w", deviceID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get device %d name: %w", deviceID, err)
	}
	return name, nil
}
