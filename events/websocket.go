package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig holds WebSocket sink configuration.
type WebSocketConfig struct {
	// WriteTimeout for write operations.
	WriteTimeout time.Duration

	// PingInterval for keepalive pings (0 = disabled).
	PingInterval time.Duration
}

// DefaultWebSocketConfig returns configuration with sensible defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// NewWebSocketUpgrader creates an upgrader for accepting WebSocket connections.
func NewWebSocketUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // Override in production
	}
}

// WebSocketSink writes each event as a JSON text message on one connection.
// A write failure reports ErrSinkClosed so the bus drops the sink.
type WebSocketSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	config WebSocketConfig
	closed bool
	done   chan struct{}
}

// NewWebSocketSink wraps an upgraded connection as an event sink.
func NewWebSocketSink(conn *websocket.Conn, cfg WebSocketConfig) *WebSocketSink {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWebSocketConfig().WriteTimeout
	}

	s := &WebSocketSink{
		conn:   conn,
		config: cfg,
		done:   make(chan struct{}),
	}

	if cfg.PingInterval > 0 {
		go s.pingLoop()
	}

	return s
}

// Deliver implements Sink.
func (s *WebSocketSink) Deliver(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(event); err != nil {
		s.closeLocked()
		return ErrSinkClosed
	}
	return nil
}

// Close shuts down the sink and the underlying connection.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

// closeLocked must be called with the mutex held.
func (s *WebSocketSink) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	s.conn.Close()
}

// pingLoop sends keepalive pings until the sink closes.
func (s *WebSocketSink) pingLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				s.closeLocked()
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
		}
	}
}

// WebSocketHandler upgrades the request and registers a sink for the
// resolved document until the client disconnects.
func WebSocketHandler(bus *Bus, cfg WebSocketConfig, documentID func(*http.Request) string) http.HandlerFunc {
	upgrader := NewWebSocketUpgrader()

	return func(w http.ResponseWriter, r *http.Request) {
		docID := documentID(r)
		if docID == "" {
			http.Error(w, "missing document id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		sink := NewWebSocketSink(conn, cfg)
		if err := bus.Register(docID, sink); err != nil {
			sink.Close()
			return
		}

		// Drain client frames so pings/pongs and close are processed;
		// the read error is the disconnect signal.
		go func() {
			defer func() {
				bus.Unregister(docID, sink)
				sink.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
