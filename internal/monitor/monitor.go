// Package monitor drives the refresh cycle: fetch both query kinds through
// the TTL cache, classify, hand the snapshot to every presentation sink,
// sleep, repeat.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"ndz_monitor/internal/classify"
	"ndz_monitor/internal/querycache"
)

// Sink receives the classified snapshot produced by each cycle.
type Sink interface {
	Publish(classify.Snapshot) error
}

// Monitor runs the polling loop. Cycles are strictly sequential and never
// overlap; the only suspension point is the sleep between cycles.
type Monitor struct {
	cache      *querycache.Cache
	classifier classify.Classifier
	interval   time.Duration
	sinks      []Sink
	now        func() time.Time
}

// New returns a monitor publishing to the given sinks in order.
func New(cache *querycache.Cache, classifier classify.Classifier, interval time.Duration, sinks ...Sink) *Monitor {
	return &Monitor{
		cache:      cache,
		classifier: classifier,
		interval:   interval,
		sinks:      sinks,
		now:        time.Now,
	}
}

// Run executes cycles until ctx is cancelled. A failed cycle is logged and
// retried on the next scheduled cycle; the store being unavailable for one
// tick does not stop the monitor.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := m.Cycle(ctx); err != nil {
			log.Printf("refresh cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// Cycle performs one fetch-classify-publish pass.
func (m *Monitor) Cycle(ctx context.Context) error {
	drones, err := m.cache.Fetch(ctx, querycache.KindDrones)
	if err != nil {
		return fmt.Errorf("drones: %w", err)
	}

	pilots, err := m.cache.Fetch(ctx, querycache.KindPilots)
	if err != nil {
		return fmt.Errorf("pilots: %w", err)
	}

	snap := m.classifier.Build(drones.Drones, pilots.Pilots, m.now())

	for _, s := range m.sinks {
		if err := s.Publish(snap); err != nil {
			log.Printf("publish snapshot: %v", err)
		}
	}
	return nil
}
