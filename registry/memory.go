package registry

import (
	"sort"
	"sync"
	"time"

	planerr "github.com/vinayprograms/plankit/errors"
)

// MemoryRegistry is an in-memory implementation of Registry.
// Suitable for testing and single-node deployments.
type MemoryRegistry struct {
	mu     sync.RWMutex
	agents map[string]Capabilities
	closed bool
}

// NewMemoryRegistry creates a new in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		agents: make(map[string]Capabilities),
	}
}

// Register adds an agent's declaration with conflict checking.
func (r *MemoryRegistry) Register(caps Capabilities) error {
	if err := ValidateCapabilities(caps); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.agents[caps.AgentID]; exists {
		return ErrDuplicateID
	}

	// All-or-nothing: check every task type before touching state.
	for _, t := range caps.TaskTypes {
		if owner := r.enabledOwnerLocked(t, caps.AgentID); owner != "" {
			return planerr.CapabilityConflict(t, owner, planerr.WithAgentID(caps.AgentID))
		}
	}

	caps.Enabled = true
	caps.RegisteredAt = time.Now()
	r.agents[caps.AgentID] = caps
	return nil
}

// Deregister removes an agent's declaration.
func (r *MemoryRegistry) Deregister(agentID string) error {
	if agentID == "" {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.agents[agentID]; !exists {
		return ErrNotFound
	}
	delete(r.agents, agentID)
	return nil
}

// Enable re-activates a disabled agent, re-checking task type ownership.
func (r *MemoryRegistry) Enable(agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	caps, exists := r.agents[agentID]
	if !exists {
		return ErrNotFound
	}
	if caps.Enabled {
		return nil
	}

	for _, t := range caps.TaskTypes {
		if owner := r.enabledOwnerLocked(t, agentID); owner != "" {
			return planerr.CapabilityConflict(t, owner, planerr.WithAgentID(agentID))
		}
	}

	caps.Enabled = true
	r.agents[agentID] = caps
	return nil
}

// Disable deactivates an agent without removing its declaration.
func (r *MemoryRegistry) Disable(agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	caps, exists := r.agents[agentID]
	if !exists {
		return ErrNotFound
	}
	caps.Enabled = false
	r.agents[agentID] = caps
	return nil
}

// Get retrieves a declaration by agent ID.
func (r *MemoryRegistry) Get(agentID string) (*Capabilities, error) {
	if agentID == "" {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}
	caps, exists := r.agents[agentID]
	if !exists {
		return nil, ErrNotFound
	}
	return &caps, nil
}

// List returns every declaration, sorted by agent ID for stable output.
func (r *MemoryRegistry) List() ([]Capabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	result := make([]Capabilities, 0, len(r.agents))
	for _, caps := range r.agents {
		result = append(result, caps)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AgentID < result[j].AgentID
	})
	return result, nil
}

// Resolve returns ordered enabled candidates for a task type.
func (r *MemoryRegistry) Resolve(taskType string, chatOnly bool) ([]Capabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	result := []Capabilities{}
	for _, caps := range r.agents {
		if !caps.Enabled || !caps.HasTaskType(taskType) {
			continue
		}
		if chatOnly && !caps.ChatEligible {
			continue
		}
		result = append(result, caps)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return result[i].RegisteredAt.Before(result[j].RegisteredAt)
	})
	return result, nil
}

// Close shuts down the registry.
func (r *MemoryRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// enabledOwnerLocked returns the ID of the enabled agent owning a task
// type, excluding the given agent. Must be called with the lock held.
func (r *MemoryRegistry) enabledOwnerLocked(taskType, exclude string) string {
	for id, caps := range r.agents {
		if id == exclude || !caps.Enabled {
			continue
		}
		if caps.HasTaskType(taskType) {
			return id
		}
	}
	return ""
}
