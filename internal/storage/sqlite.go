package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a pure-Go store for local development and tests. It keeps
// the same relations and cascade behavior as the PostgreSQL store, so the
// monitor runs unchanged against either.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path and
// initialises the schema. An empty path means an in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Each pooled connection to :memory: would see its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS violated_pilots (
	pilot_id            TEXT PRIMARY KEY,
	first_name          TEXT,
	last_name           TEXT,
	phone_number        TEXT,
	email               TEXT,
	created_dt          DATETIME NOT NULL DEFAULT (datetime('now')),
	last_violation_at   DATETIME,
	last_violation_x    REAL,
	last_violation_y    REAL,
	nearest_violation_x REAL,
	nearest_violation_y REAL
);

CREATE INDEX IF NOT EXISTS idx_violated_pilots_last_violation
	ON violated_pilots(last_violation_at);

CREATE TABLE IF NOT EXISTS drones (
	serial_number     TEXT PRIMARY KEY,
	manufacturer      TEXT,
	mac               TEXT,
	ipv4              TEXT,
	ipv6              TEXT,
	firmware          TEXT,
	position_x        REAL,
	position_y        REAL,
	altitude          REAL,
	is_violating_ndz  BOOLEAN NOT NULL DEFAULT 0,
	violated_pilot_id TEXT UNIQUE REFERENCES violated_pilots(pilot_id),
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_drones_updated_at ON drones(updated_at);

CREATE TRIGGER IF NOT EXISTS trg_drones_delete_linked_pilot
	AFTER DELETE ON drones
	WHEN OLD.violated_pilot_id IS NOT NULL
BEGIN
	DELETE FROM violated_pilots WHERE pilot_id = OLD.violated_pilot_id;
END;
`

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListDrones returns all drone records.
func (s *SQLiteStore) ListDrones(ctx context.Context) ([]Drone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT serial_number,
		       COALESCE(manufacturer, ''), COALESCE(mac, ''),
		       COALESCE(ipv4, ''), COALESCE(ipv6, ''), COALESCE(firmware, ''),
		       position_x, position_y, altitude,
		       is_violating_ndz, violated_pilot_id, created_at, updated_at
		FROM drones
	`)
	if err != nil {
		return nil, fmt.Errorf("query drones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drones []Drone
	for rows.Next() {
		var d Drone
		err := rows.Scan(
			&d.SerialNumber, &d.Manufacturer, &d.MAC, &d.IPv4, &d.IPv6, &d.Firmware,
			&d.PositionX, &d.PositionY, &d.Altitude,
			&d.IsViolatingNDZ, &d.ViolatedPilotID, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan drone: %w", err)
		}
		drones = append(drones, d)
	}
	return drones, rows.Err()
}

// ListViolatedPilots returns all pilot violation records.
func (s *SQLiteStore) ListViolatedPilots(ctx context.Context) ([]ViolatedPilot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pilot_id,
		       COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(phone_number, ''), COALESCE(email, ''), created_dt,
		       last_violation_at, last_violation_x, last_violation_y,
		       nearest_violation_x, nearest_violation_y
		FROM violated_pilots
	`)
	if err != nil {
		return nil, fmt.Errorf("query violated_pilots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pilots []ViolatedPilot
	for rows.Next() {
		var p ViolatedPilot
		err := rows.Scan(
			&p.PilotID, &p.FirstName, &p.LastName, &p.PhoneNumber, &p.Email, &p.CreatedDt,
			&p.LastViolationAt, &p.LastViolationX, &p.LastViolationY,
			&p.NearestViolationX, &p.NearestViolationY,
		)
		if err != nil {
			return nil, fmt.Errorf("scan violated_pilot: %w", err)
		}
		pilots = append(pilots, p)
	}
	return pilots, rows.Err()
}

// InsertViolatedPilot inserts a pilot record. Fixture/demo helper; the
// monitor core never writes.
func (s *SQLiteStore) InsertViolatedPilot(ctx context.Context, p ViolatedPilot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO violated_pilots (
			pilot_id, first_name, last_name, phone_number, email, created_dt,
			last_violation_at, last_violation_x, last_violation_y,
			nearest_violation_x, nearest_violation_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.PilotID, p.FirstName, p.LastName, p.PhoneNumber, p.Email, p.CreatedDt,
		p.LastViolationAt, p.LastViolationX, p.LastViolationY,
		p.NearestViolationX, p.NearestViolationY)
	if err != nil {
		return fmt.Errorf("insert violated_pilot: %w", err)
	}
	return nil
}

// InsertDrone inserts a drone record. Fixture/demo helper.
func (s *SQLiteStore) InsertDrone(ctx context.Context, d Drone) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drones (
			serial_number, manufacturer, mac, ipv4, ipv6, firmware,
			position_x, position_y, altitude,
			is_violating_ndz, violated_pilot_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.SerialNumber, d.Manufacturer, d.MAC, d.IPv4, d.IPv6, d.Firmware,
		d.PositionX, d.PositionY, d.Altitude,
		d.IsViolatingNDZ, d.ViolatedPilotID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert drone: %w", err)
	}
	return nil
}

// DeleteDrone removes a drone; the schema trigger cascades deletion of the
// linked pilot record.
func (s *SQLiteStore) DeleteDrone(ctx context.Context, serialNumber string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drones WHERE serial_number = ?`, serialNumber)
	if err != nil {
		return fmt.Errorf("delete drone: %w", err)
	}
	return nil
}
