package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ExportConfig holds HTTP export sink configuration.
type ExportConfig struct {
	// Endpoint is the URL events are POSTed to as a JSON array.
	Endpoint string

	// BatchSize triggers a flush when the buffer reaches it.
	BatchSize int

	// FlushInterval flushes partial batches periodically (0 = disabled).
	FlushInterval time.Duration

	// RequestTimeout bounds each POST.
	RequestTimeout time.Duration
}

// DefaultExportConfig returns configuration with sensible defaults.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		BatchSize:      100,
		FlushInterval:  10 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// ExportSink batches events and ships them to an HTTP collector. Delivery
// failures are reported to the bus but the sink stays registered; the
// batch is retried on the next flush.
type ExportSink struct {
	config ExportConfig
	client *http.Client

	mu     sync.Mutex
	buffer []Event
	closed bool
	done   chan struct{}
}

// NewExportSink creates an export sink for the given endpoint.
func NewExportSink(cfg ExportConfig) *ExportSink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultExportConfig().BatchSize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultExportConfig().RequestTimeout
	}

	s := &ExportSink{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		buffer: make([]Event, 0, cfg.BatchSize),
		done:   make(chan struct{}),
	}

	if cfg.FlushInterval > 0 {
		go s.flushLoop()
	}

	return s
}

// Deliver implements Sink.
func (s *ExportSink) Deliver(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	s.buffer = append(s.buffer, event)
	if len(s.buffer) >= s.config.BatchSize {
		return s.flushLocked()
	}
	return nil
}

// Flush sends any buffered events immediately.
func (s *ExportSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Close flushes remaining events and stops the background loop.
func (s *ExportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.flushLocked()
}

// flushLocked must be called with the mutex held. On failure the buffer
// is kept for the next attempt.
func (s *ExportSink) flushLocked() error {
	if len(s.buffer) == 0 {
		return nil
	}

	data, err := json.Marshal(s.buffer)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("export endpoint returned %d", resp.StatusCode)
	}

	s.buffer = s.buffer[:0]
	return nil
}

// flushLoop flushes partial batches on the configured interval.
func (s *ExportSink) flushLoop() {
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}
