package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SSEConfig holds SSE streaming configuration.
type SSEConfig struct {
	// Buffer is the per-client event buffer size.
	Buffer int

	// HeartbeatInterval sends SSE comments as keepalive (0 = disabled).
	HeartbeatInterval time.Duration
}

// DefaultSSEConfig returns configuration with sensible defaults.
func DefaultSSEConfig() SSEConfig {
	return SSEConfig{
		Buffer:            64,
		HeartbeatInterval: 30 * time.Second,
	}
}

// SSEHandler streams a document's events over Server-Sent Events. The
// document ID is resolved from the request by the supplied function; an
// empty result is rejected with 400.
func SSEHandler(bus *Bus, cfg SSEConfig, documentID func(*http.Request) string) http.HandlerFunc {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultSSEConfig().Buffer
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		docID := documentID(r)
		if docID == "" {
			http.Error(w, "missing document id", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
		flusher.Flush()

		sink := NewChannelSink(cfg.Buffer)
		if err := bus.Register(docID, sink); err != nil {
			http.Error(w, "subscribe failed", http.StatusServiceUnavailable)
			return
		}
		defer func() {
			bus.Unregister(docID, sink)
			sink.Close()
		}()

		var heartbeat <-chan time.Time
		if cfg.HeartbeatInterval > 0 {
			ticker := time.NewTicker(cfg.HeartbeatInterval)
			defer ticker.Stop()
			heartbeat = ticker.C
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat:
				fmt.Fprintf(w, ": heartbeat\n\n")
				flusher.Flush()
			case event, ok := <-sink.Events():
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}
