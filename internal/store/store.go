// Package store provides SQLite persistence for DevPulse.
package store

import (
	"database/sql"
	"fmt"

	"github.com/akvarma/devpulse/internal/model"
	_ "modernc.org/sqlite"
)

// DefaultRecentLimit bounds Recent when the caller passes no limit.
const DefaultRecentLimit = 20

// Store wraps a SQLite database holding device snapshots and the alert log.
// SQLite serializes writes internally; reads may proceed concurrently.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at the given path and runs
// migrations. A failure here is fatal to startup: nothing can proceed
// without durable storage.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append durably persists one snapshot. Each call is a new row; there is no
// automatic retry — failures are reported to the caller.
func (s *Store) Append(snap model.Snapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots
		(ts, device_id, temperature, memory, voltage, cpu, io, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp, snap.DeviceID, snap.Temperature, snap.Memory,
		snap.Voltage, snap.CPU, snap.IO, snap.Status,
	)
	if err != nil {
		return fmt.Errorf("appending snapshot for %s: %w", snap.DeviceID, err)
	}
	return nil
}

// History returns all snapshots for a device in insertion order (ascending
// time). A device with no recorded snapshots yields an empty slice.
func (s *Store) History(deviceID string) ([]model.Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT ts, device_id, temperature, memory, voltage, cpu, io, status
		FROM snapshots
		WHERE device_id = ?
		ORDER BY id ASC`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", deviceID, err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// Recent returns the most recent snapshots across all devices, newest first,
// bounded to limit. A non-positive limit uses DefaultRecentLimit.
func (s *Store) Recent(limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.Query(`
		SELECT ts, device_id, temperature, memory, voltage, cpu, io, status
		FROM snapshots
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// AllSnapshots returns every snapshot across all devices in insertion order.
func (s *Store) AllSnapshots() ([]model.Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT ts, device_id, temperature, memory, voltage, cpu, io, status
		FROM snapshots
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying all snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]model.Snapshot, error) {
	snaps := []model.Snapshot{}
	for rows.Next() {
		var snap model.Snapshot
		if err := rows.Scan(&snap.Timestamp, &snap.DeviceID, &snap.Temperature,
			&snap.Memory, &snap.Voltage, &snap.CPU, &snap.IO, &snap.Status); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// InsertAlert logs a fired alert.
func (s *Store) InsertAlert(ts int64, alertType, deviceID, subject, message, severity string) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_log (ts, alert_type, device_id, subject, message, severity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ts, alertType, deviceID, subject, message, severity,
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

// RecentAlerts returns the most recent alert-log entries, newest first.
func (s *Store) RecentAlerts(limit int) ([]model.AlertRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.Query(`
		SELECT id, ts, alert_type, device_id, subject, message, severity
		FROM alert_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent alerts: %w", err)
	}
	defer rows.Close()

	alerts := []model.AlertRecord{}
	for rows.Next() {
		var a model.AlertRecord
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.AlertType, &a.DeviceID,
			&a.Subject, &a.Message, &a.Severity); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
