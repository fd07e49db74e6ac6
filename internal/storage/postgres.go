package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresStore reads drone and pilot records from PostgreSQL. The pool is
// opened once at startup and shared across all refresh cycles.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL and verifies it with a
// ping.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateSchema creates the drones and violated_pilots tables. The foreign
// key points drone -> pilot, so the cascade the data model requires (a
// pilot record must not outlive the drone that violated through it) is
// expressed as a delete trigger on drones rather than an ON DELETE action.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS violated_pilots (
		pilot_id            TEXT PRIMARY KEY,
		first_name          TEXT,
		last_name           TEXT,
		phone_number        TEXT,
		email               TEXT,
		created_dt          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_violation_at   TIMESTAMPTZ,
		last_violation_x    DOUBLE PRECISION,
		last_violation_y    DOUBLE PRECISION,
		nearest_violation_x DOUBLE PRECISION,
		nearest_violation_y DOUBLE PRECISION
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
		position_x        DOUBLE PRECISION,
		position_y        DOUBLE PRECISION,
		altitude          DOUBLE PRECISION,
		is_violating_ndz  BOOLEAN NOT NULL DEFAULT FALSE,
		violated_pilot_id TEXT UNIQUE REFERENCES violated_pilots(pilot_id),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_drones_updated_at ON drones(updated_at);
	CREATE INDEX IF NOT EXISTS idx_drones_violated_pilot ON drones(violated_pilot_id);

	CREATE OR REPLACE FUNCTION drones_delete_linked_pilot() RETURNS trigger AS $fn$
	BEGIN
		IF OLD.violated_pilot_id IS NOT NULL THEN
			DELETE FROM violated_pilots WHERE pilot_id = OLD.violated_pilot_id;
		END IF;
		RETURN OLD;
	END;
	$fn$ LANGUAGE plpgsql;

	DROP TRIGGER IF EXISTS trg_drones_delete_linked_pilot ON drones;
	CREATE TRIGGER trg_drones_delete_linked_pilot
		AFTER DELETE ON drones
		FOR EACH ROW EXECUTE FUNCTION drones_delete_linked_pilot();
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ListDrones returns all drone records.
func (s *PostgresStore) ListDrones(ctx context.Context) ([]Drone, error) {
	rows, err := s.pool.Query(ctx, `
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
	defer rows.Close()

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
func (s *PostgresStore) ListViolatedPilots(ctx context.Context) ([]ViolatedPilot, error) {
	rows, err := s.pool.Query(ctx, `
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
	defer rows.Close()

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

// Pool returns the underlying connection pool for advanced operations.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}
