package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig holds NATS sink configuration.
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for identification.
	Name string

	// SubjectPrefix is prepended to the document ID to form the publish
	// subject, e.g. "plan.events" -> "plan.events.<documentID>".
	SubjectPrefix string

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// MaxReconnects is the maximum number of reconnection attempts.
	// -1 = unlimited
	MaxReconnects int

	// ConnectTimeout for initial connection.
	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		SubjectPrefix:  "plan.events",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1, // Unlimited
		ConnectTimeout: 5 * time.Second,
	}
}

// NATSSink publishes each event to a NATS subject derived from the
// event's document ID, letting external consumers follow agent progress.
type NATSSink struct {
	conn    *nats.Conn
	config  NATSConfig
	ownConn bool
}

// NewNATSSink connects to NATS and returns a publishing sink.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultNATSConfig().SubjectPrefix
	}

	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSSink{conn: conn, config: cfg, ownConn: true}, nil
}

// NewNATSSinkFromConn creates a NATSSink from an existing connection.
// The caller keeps ownership of the connection.
func NewNATSSinkFromConn(conn *nats.Conn, cfg NATSConfig) *NATSSink {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultNATSConfig().SubjectPrefix
	}
	return &NATSSink{conn: conn, config: cfg}
}

// Deliver implements Sink.
func (s *NATSSink) Deliver(event Event) error {
	if s.conn.IsClosed() {
		return ErrSinkClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := s.config.SubjectPrefix + "." + event.DocumentID
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Close flushes pending publishes and, if the sink owns the connection,
// closes it.
func (s *NATSSink) Close() error {
	if s.conn.IsClosed() {
		return nil
	}
	err := s.conn.Flush()
	if s.ownConn {
		s.conn.Close()
	}
	return err
}
