package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports an operation on a row that does not exist. Callers
// check it with errors.Is; it is a normal outcome, not a failure.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width UTC so lexicographic comparison of stored
// timestamps matches chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	mac TEXT UNIQUE NOT NULL,
	device_type TEXT,
	last_seen TEXT,
	last_ip TEXT
);

CREATE TABLE IF NOT EXISTS ping_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	device_id INTEGER NOT NULL,
	ip TEXT,
	status INTEGER NOT NULL,
	latency_ms REAL,
	FOREIGN KEY(device_id) REFERENCES devices(id)
);

CREATE TABLE IF NOT EXISTS metrics_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	device_id INTEGER NOT NULL,
	cpu REAL,
	ram REAL,
	disk REAL,
	net_sent REAL,
	net_recv REAL,
	FOREIGN KEY(device_id) REFERENCES devices(id)
);

CREATE TABLE IF NOT EXISTS anomalies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	device_id INTEGER NOT NULL,
	detection_method TEXT NOT NULL,
	severity TEXT NOT NULL,
	details TEXT NOT NULL,
	acknowledged INTEGER DEFAULT 0,
	FOREIGN KEY(device_id) REFERENCES devices(id)
);

CREATE INDEX IF NOT EXISTS idx_metrics_device_time ON metrics_logs(device_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_anomalies_dedup ON anomalies(device_id, detection_method, timestamp);
`

// Store wraps the SQLite database holding devices, metric/ping logs and the
// anomaly ledger
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path (":memory:" for tests) and
// applies the schema
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
