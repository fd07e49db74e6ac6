// Package main provides the ndz_monitor service: a live dashboard that
// polls the backing store for drone telemetry and pilot NDZ-violation
// records, classifies every drone by its violation state, and publishes
// refreshed views on a fixed interval.
//
// Usage:
//
//	ndz_monitor [options]
//
// Options:
//
//	-pg-host HOST       PostgreSQL host (default: localhost, env: POSTGRES_HOST)
//	-pg-port PORT       PostgreSQL port (default: 5432, env: POSTGRES_PORT)
//	-pg-database DB     PostgreSQL database (default: birdnest, env: POSTGRES_DATABASE)
//	-pg-user USER       PostgreSQL user (default: birdnest, env: POSTGRES_USER)
//	-pg-password PASS   PostgreSQL password (default: birdnest, env: POSTGRES_PASSWORD)
//	-sqlite PATH        Use a SQLite store at PATH instead of PostgreSQL
//	-demo               Use an in-memory SQLite store seeded with sample data
//	-create-schema      Create the store schema on startup
//	-port N             Dashboard HTTP port (default: 8080)
//	-interval DUR       Refresh interval (default: 3s)
//	-ttl DUR            Query cache TTL (default: 10s)
//	-nats-url URL       Publish snapshots to NATS at URL (optional)
//	-nats-subject SUBJ  NATS subject (default: ndz.snapshot)
//	-center-x N         NDZ center X in native units (default: 250000)
//	-center-y N         NDZ center Y in native units (default: 250000)
//	-radius N           NDZ radius in native units (default: 100000)
//
// API Endpoints:
//
//	GET  /api/v1/health      Health check.
//	GET  /api/v1/snapshot    Latest classified snapshot (full).
//	GET  /api/v1/pilots      Pilot table, distance-annotated, oldest violation first.
//	GET  /api/v1/drones      Drone table, distance-annotated, newest update first.
//	GET  /api/v1/positions   Partitioned position sets plus zone geometry.
//	POST /api/v1/refresh     Invalidate the query cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ndz_monitor/internal/classify"
	"ndz_monitor/internal/dashboard"
	"ndz_monitor/internal/geofence"
	"ndz_monitor/internal/monitor"
	"ndz_monitor/internal/natspub"
	"ndz_monitor/internal/querycache"
	"ndz_monitor/internal/storage"
)

func main() {
	// PostgreSQL connection flags.
	pgHost := flag.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := flag.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgUser := flag.String("pg-user", envOrDefault("POSTGRES_USER", "birdnest"), "PostgreSQL user")
	pgPassword := flag.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "birdnest"), "PostgreSQL password")
	pgDB := flag.String("pg-database", envOrDefault("POSTGRES_DATABASE", "birdnest"), "PostgreSQL database")

	// Alternate stores.
	sqlitePath := flag.String("sqlite", "", "Use a SQLite store at this path instead of PostgreSQL")
	demo := flag.Bool("demo", false, "Use an in-memory SQLite store seeded with sample data")
	createSchema := flag.Bool("create-schema", false, "Create the store schema on startup")

	// Monitor tunables.
	port := flag.Int("port", 8080, "Dashboard HTTP port")
	interval := flag.Duration("interval", 3*time.Second, "Refresh interval")
	ttl := flag.Duration("ttl", 10*time.Second, "Query cache TTL")
	natsURL := flag.String("nats-url", "", "Publish snapshots to NATS at this URL (optional)")
	natsSubject := flag.String("nats-subject", natspub.DefaultSubject, "NATS subject for snapshots")

	// Zone geometry.
	defZone := geofence.Default()
	centerX := flag.Float64("center-x", defZone.CenterX, "NDZ center X (native units)")
	centerY := flag.Float64("center-y", defZone.CenterY, "NDZ center Y (native units)")
	radius := flag.Float64("radius", defZone.Radius, "NDZ radius (native units)")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, *sqlitePath, *demo, *createSchema, storage.PostgresConfig{
		Host:     *pgHost,
		Port:     *pgPort,
		Database: *pgDB,
		User:     *pgUser,
		Password: *pgPassword,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	zone := geofence.Zone{CenterX: *centerX, CenterY: *centerY, Radius: *radius, Scale: defZone.Scale}
	cache := querycache.New(store, *ttl)
	classifier := classify.Classifier{Zone: zone}

	server := dashboard.NewServer(zone, cache, *port)
	sinks := []monitor.Sink{server}

	if *natsURL != "" {
		pub, err := natspub.Connect(*natsURL, *natsSubject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to NATS: %v\n", err)
			os.Exit(1)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Printf("Publishing snapshots to NATS %s subject %s", *natsURL, *natsSubject)
	}

	go func() {
		if err := server.Run(); err != nil {
			log.Printf("dashboard server: %v", err)
		}
	}()

	log.Printf("NDZ zone: center (%.0f, %.0f), radius %.0f m", zone.CenterX, zone.CenterY, zone.RadiusMeters())
	log.Printf("Refreshing every %s, cache TTL %s", *interval, *ttl)

	m := monitor.New(cache, classifier, *interval, sinks...)
	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Monitor error: %v\n", err)
		os.Exit(1)
	}
	log.Printf("Shutting down")
}

// openStore picks the backing store: demo/in-memory SQLite, file SQLite, or
// PostgreSQL.
func openStore(ctx context.Context, sqlitePath string, demo, createSchema bool, pgCfg storage.PostgresConfig) (storage.Store, error) {
	if demo {
		st, err := storage.OpenSQLite("")
		if err != nil {
			return nil, err
		}
		if err := seedDemo(ctx, st); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		log.Printf("Using in-memory SQLite store with demo data")
		return st, nil
	}

	if sqlitePath != "" {
		st, err := storage.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("Using SQLite store at %s", sqlitePath)
		return st, nil
	}

	st, err := storage.OpenPostgres(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	if createSchema {
		if err := st.CreateSchema(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	log.Printf("Using PostgreSQL store at %s:%d/%s", pgCfg.Host, pgCfg.Port, pgCfg.Database)
	return st, nil
}

// seedDemo inserts a few drones and pilots around the default zone so the
// dashboard renders without an ingestion pipeline.
func seedDemo(ctx context.Context, st *storage.SQLiteStore) error {
	now := time.Now().UTC()
	f := func(v float64) *float64 { return &v }
	s := func(v string) *string { return &v }
	ts := func(v time.Time) *time.Time { return &v }

	pilots := []storage.ViolatedPilot{
		{
			PilotID: "P1", FirstName: "Saku", LastName: "Korhonen",
			PhoneNumber: "+358401234567", Email: "saku.korhonen@example.com",
			CreatedDt:       now.Add(-30 * time.Minute),
			LastViolationAt: ts(now.Add(-8 * time.Minute)),
			LastViolationX:  f(310000), LastViolationY: f(250000),
			NearestViolationX: f(295000), NearestViolationY: f(250000),
		},
		{
			PilotID: "P2", FirstName: "Aino", LastName: "Virtanen",
			PhoneNumber: "+358407654321", Email: "aino.virtanen@example.com",
			CreatedDt:       now.Add(-12 * time.Minute),
			LastViolationAt: ts(now.Add(-2 * time.Minute)),
			LastViolationX:  f(250000), LastViolationY: f(330000),
			NearestViolationX: f(250000), NearestViolationY: f(320000),
		},
	}
	for _, p := range pilots {
		if err := st.InsertViolatedPilot(ctx, p); err != nil {
			return err
		}
	}

	drones := []storage.Drone{
		{
			SerialNumber: "DEMO-CV-1", Manufacturer: "ProDröne Ltd",
			MAC: "aa:bb:cc:dd:ee:01", Firmware: "1.4.2",
			PositionX: f(260000), PositionY: f(240000), Altitude: f(4200),
			IsViolatingNDZ: true,
			CreatedAt:      now.Add(-10 * time.Minute), UpdatedAt: now.Add(-5 * time.Second),
		},
		{
			SerialNumber: "DEMO-RV-1", Manufacturer: "MegaDrone Oy",
			MAC: "aa:bb:cc:dd:ee:02", Firmware: "0.9.1",
			PositionX: f(390000), PositionY: f(110000), Altitude: f(3100),
			IsViolatingNDZ: false,
			CreatedAt:      now.Add(-20 * time.Minute), UpdatedAt: now.Add(-40 * time.Second),
		},
		{
			SerialNumber: "DEMO-AT-1", Manufacturer: "ProDröne Ltd",
			MAC: "aa:bb:cc:dd:ee:03", Firmware: "1.4.2",
			PositionX: f(310000), PositionY: f(250000), Altitude: f(4800),
			IsViolatingNDZ: false, ViolatedPilotID: s("P1"),
			CreatedAt: now.Add(-30 * time.Minute), UpdatedAt: now.Add(-90 * time.Second),
		},
		{
			SerialNumber: "DEMO-AT-2", Manufacturer: "MegaDrone Oy",
			MAC: "aa:bb:cc:dd:ee:04", Firmware: "2.0.0",
			PositionX: f(250000), PositionY: f(330000), Altitude: f(5000),
			IsViolatingNDZ: true, ViolatedPilotID: s("P2"),
			CreatedAt: now.Add(-12 * time.Minute), UpdatedAt: now.Add(-10 * time.Second),
		},
		{
			// Telemetry not yet received; exercises missing-coordinate paths.
			SerialNumber: "DEMO-NOPOS-1", Manufacturer: "MegaDrone Oy",
			MAC: "aa:bb:cc:dd:ee:05", Firmware: "2.0.0",
			IsViolatingNDZ: false,
			CreatedAt:      now.Add(-1 * time.Minute), UpdatedAt: now.Add(-1 * time.Minute),
		},
	}
	for _, d := range drones {
		if err := st.InsertDrone(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
