// Package querycache memoizes the two backing-store queries for a fixed
// time window, shielding the store from per-refresh-tick load. Expiry is a
// visible contract: each entry carries its capture timestamp and is checked
// lazily at access time; there is no eviction goroutine.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ndz_monitor/internal/storage"
)

// Kind identifies one of the two cached queries.
type Kind string

const (
	KindDrones Kind = "drones"
	KindPilots Kind = "pilots"
)

// ErrInvalidQueryKind is returned for an unrecognized query kind. Existing
// cache entries are untouched.
var ErrInvalidQueryKind = errors.New("invalid query kind")

// Result is a cached snapshot of one query. Exactly one of Drones or Pilots
// is populated, matching Kind. Snapshots are plain records, safe to reuse
// across refresh cycles without touching the store.
type Result struct {
	Kind       Kind
	Drones     []storage.Drone
	Pilots     []storage.ViolatedPilot
	CapturedAt time.Time
}

// Cache memoizes store reads per query kind with a fixed TTL.
type Cache struct {
	store storage.Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[Kind]Result
}

// New returns a cache over the given store. Entries are valid for ttl from
// their capture time.
func New(store storage.Store, ttl time.Duration) *Cache {
	return &Cache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Kind]Result),
	}
}

// Fetch returns the cached snapshot for kind, reading from the store only
// when no fresh entry exists. A fetch that fails leaves any previous entry
// in place (it will not be served once expired).
func (c *Cache) Fetch(ctx context.Context, kind Kind) (Result, error) {
	switch kind {
	case KindDrones, KindPilots:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidQueryKind, kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[kind]; ok && c.now().Sub(e.CapturedAt) < c.ttl {
		return e, nil
	}

	r := Result{Kind: kind, CapturedAt: c.now()}
	var err error
	switch kind {
	case KindDrones:
		r.Drones, err = c.store.ListDrones(ctx)
	case KindPilots:
		r.Pilots, err = c.store.ListViolatedPilots(ctx)
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", kind, err)
	}

	c.entries[kind] = r
	return r, nil
}

// Invalidate discards all cached entries; the next Fetch per kind reads
// from the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Kind]Result)
}
