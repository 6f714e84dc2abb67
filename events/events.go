package events

import (
	"errors"
	"time"
)

// Common errors.
var (
	// ErrSinkClosed is returned by a sink to report a terminal condition.
	// The bus unregisters the sink on seeing it.
	ErrSinkClosed = errors.New("sink closed")

	// ErrBusClosed indicates the bus has been shut down.
	ErrBusClosed = errors.New("bus closed")

	// ErrInvalidEvent indicates the event is missing required fields.
	ErrInvalidEvent = errors.New("invalid event")
)

// Status represents an agent's execution state within one task.
type Status string

const (
	// StatusQueued is emitted once when the task enters the executor.
	StatusQueued Status = "queued"

	// StatusRunning is emitted any number of times with progress.
	StatusRunning Status = "running"

	// StatusCompleted is the successful terminal status.
	StatusCompleted Status = "completed"

	// StatusFailed is the failure terminal status.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the status is completed or failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Event is one progress/status notification from an agent working on a
// document. Terminal status is emitted exactly once per task.
type Event struct {
	// AgentID identifies the emitting agent.
	AgentID string `json:"agent_id"`

	// Kind is the agent's task type (e.g. "plan", "edit").
	Kind string `json:"kind"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Progress is 0-100.
	Progress int `json:"progress"`

	// Message is a human-readable description of the current work.
	Message string `json:"message,omitempty"`

	// Stage names the current phase of multi-step work.
	Stage string `json:"stage,omitempty"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// DocumentID is the document the agent is working on.
	DocumentID string `json:"document_id"`
}

// Validate checks the event for required fields and bounds.
func (e Event) Validate() error {
	if e.AgentID == "" || e.DocumentID == "" {
		return ErrInvalidEvent
	}
	if e.Progress < 0 || e.Progress > 100 {
		return ErrInvalidEvent
	}
	switch e.Status {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed:
		return nil
	default:
		return ErrInvalidEvent
	}
}

// Sink receives events for one document. Implementations must be safe for
// concurrent Deliver calls across documents; the bus serializes delivery
// per document.
type Sink interface {
	// Deliver handles one event. Returning ErrSinkClosed tells the bus
	// to unregister this sink; any other error is logged and delivery
	// continues to remaining sinks and future events.
	Deliver(event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(event Event) error {
	return f(event)
}
