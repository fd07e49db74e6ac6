// Package storage provides read access to the drone and pilot-violation
// relations. The monitor core never writes; ingestion and violation
// detection live upstream.
package storage

import "context"

// Store is the read surface the refresh loop depends on. Each call is a
// short-lived read session scoped to that single query; the underlying
// connection resource is opened once at startup and reused.
type Store interface {
	ListDrones(ctx context.Context) ([]Drone, error)
	ListViolatedPilots(ctx context.Context) ([]ViolatedPilot, error)
	Close() error
}
