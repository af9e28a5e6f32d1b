package queue

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes on core NATS subjects
type NATSPublisher struct {
	conn  *nats.Conn
	owned bool
}

// NewNATSPublisher connects to url
func NewNATSPublisher(url, username, password string) (*NATSPublisher, error) {
	opts := []nats.Option{nats.Name("orelens")}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, owned: true}, nil
}

// NewNATSPublisherWithConn reuses an existing connection; Close leaves it open
func NewNATSPublisherWithConn(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish sends data and waits for the server to acknowledge the flush
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection if this publisher opened it
func (p *NATSPublisher) Close() error {
	if !p.owned || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Drain()
}
