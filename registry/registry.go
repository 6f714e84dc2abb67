// Package registry provides capability registration and agent resolution
// for task routing.
//
// Agents declare which task types they handle; the registry enforces that
// every task type has at most one enabled owner, and resolves the ordered
// candidate list for a task when the orchestrator routes a request.
package registry

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrNotFound    = errors.New("agent not found")
	ErrClosed      = errors.New("registry closed")
	ErrInvalidID   = errors.New("invalid agent ID")
	ErrDuplicateID = errors.New("duplicate agent ID")
)

// Capabilities declares what one agent can do.
type Capabilities struct {
	// AgentID uniquely identifies the agent.
	AgentID string

	// Name is a human-readable name for the agent.
	Name string

	// TaskTypes lists the task types the agent handles (e.g. "plan",
	// "edit"). No two enabled agents may share a task type.
	TaskTypes []string

	// Sections lists document sections the agent may write outside the
	// day structure (e.g. "bookings").
	Sections []string

	// Priority orders candidates during resolution; lower runs first.
	Priority int

	// ChatEligible marks the agent as reachable from conversational
	// routing. Pipeline-only agents set this false.
	ChatEligible bool

	// Config contains agent-specific key-value settings.
	Config map[string]string

	// Enabled is managed by the registry; disabled agents keep their
	// declaration but are skipped during resolution and conflict checks.
	Enabled bool

	// RegisteredAt is set by the registry and breaks priority ties.
	RegisteredAt time.Time
}

// HasTaskType reports whether the declaration covers a task type.
func (c Capabilities) HasTaskType(taskType string) bool {
	for _, t := range c.TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}

// Registry manages agent capability declarations.
type Registry interface {
	// Register adds an agent's declaration. It fails with a
	// CAPABILITY_CONFLICT error if any declared task type is already
	// owned by another enabled agent; on conflict nothing is registered.
	Register(caps Capabilities) error

	// Deregister removes an agent's declaration entirely.
	// Returns ErrNotFound if the agent doesn't exist.
	Deregister(agentID string) error

	// Enable re-activates a disabled agent. Conflicts that appeared
	// while the agent was disabled are re-checked.
	Enable(agentID string) error

	// Disable deactivates an agent without removing its declaration.
	Disable(agentID string) error

	// Get retrieves a specific declaration by agent ID.
	Get(agentID string) (*Capabilities, error)

	// List returns every declaration, enabled or not.
	List() ([]Capabilities, error)

	// Resolve returns the enabled agents declaring taskType, ordered by
	// ascending priority and then registration order. When chatOnly is
	// set, agents that are not chat-eligible are excluded. No qualifying
	// agent yields an empty slice and a nil error.
	Resolve(taskType string, chatOnly bool) ([]Capabilities, error)

	// Close shuts down the registry.
	Close() error
}

// ValidateCapabilities checks a declaration for required fields.
func ValidateCapabilities(caps Capabilities) error {
	if caps.AgentID == "" {
		return ErrInvalidID
	}
	if len(caps.TaskTypes) == 0 {
		return errors.New("capabilities must declare at least one task type")
	}
	for _, t := range caps.TaskTypes {
		if t == "" {
			return errors.New("empty task type in capabilities")
		}
	}
	return nil
}
