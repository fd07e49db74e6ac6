// Package natspub publishes each cycle's snapshot to a NATS subject as
// JSON, for downstream consumers that want the classified feed rather than
// the dashboard.
package natspub

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"ndz_monitor/internal/classify"
)

// DefaultSubject is the subject snapshots are published on.
const DefaultSubject = "ndz.snapshot"

// Publisher sends snapshots over a NATS connection. Implements
// monitor.Sink.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect opens a NATS connection to url. An empty subject uses
// DefaultSubject.
func Connect(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url, nats.Name("ndz-monitor"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish marshals the snapshot and sends it. Errors are returned to the
// monitor, which logs and carries on; a flaky feed must not stall the loop.
func (p *Publisher) Publish(snap classify.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes and closes the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
