package models

import "time"

// Device represents a monitored network device, identified by MAC address
type Device struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	MAC        string     `json:"mac"`
	DeviceType string     `json:"device_type,omitempty"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
	LastIP     string     `json:"last_ip,omitempty"`
}

// MetricRecord is one metric sample reported by a device agent.
// CPU/RAM/Disk are usage percentages, NetSent/NetRecv are byte rates.
// Nullable columns surface as nil pointers; the detection engine coerces
// missing values to 0.
type MetricRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  int64     `json:"device_id"`
	CPU       *float64  `json:"cpu"`
	RAM       *float64  `json:"ram"`
	Disk      *float64  `json:"disk"`
	NetSent   *float64  `json:"net_sent"`
	NetRecv   *float64  `json:"net_recv"`
}

// PingLog records one reachability probe result for a device
type PingLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  int64     `json:"device_id"`
	IP        string    `json:"ip,omitempty"`
	Online    bool      `json:"online"`
	LatencyMS *float64  `json:"latency_ms,omitempty"`
}
