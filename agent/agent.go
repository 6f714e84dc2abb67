// Package agent defines the execution contract agents run under and the
// concrete agents that work on plan documents.
//
// The executor guarantees a uniform event lifecycle around every run:
// one queued event, any number of running progress events from the agent
// body, and exactly one terminal event (completed or failed) no matter
// how the body exits, panics included. Errors are returned after the
// failed event so the orchestrator can fall back to the next candidate.
package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/registry"
)

// Common errors.
var (
	ErrInvalidTask = errors.New("invalid task")
)

// Task is one unit of work routed to an agent.
type Task struct {
	// ID uniquely identifies the task.
	ID string

	// Type is the routing key (e.g. "plan", "edit", "book", "index").
	Type string

	// DocumentID is the document to work on.
	DocumentID string

	// UserID attributes the work.
	UserID string

	// Instruction is the user's request in free text.
	Instruction string

	// Params carries task-specific key-value inputs.
	Params map[string]string
}

// NewTask creates a task with a fresh ID.
func NewTask(taskType, documentID, instruction string) Task {
	return Task{
		ID:          uuid.New().String(),
		Type:        taskType,
		DocumentID:  documentID,
		Instruction: instruction,
	}
}

// Validate checks the task for required fields.
func (t Task) Validate() error {
	if t.Type == "" || t.DocumentID == "" {
		return ErrInvalidTask
	}
	return nil
}

// Result is an agent's output for one task.
type Result struct {
	// AgentID is the agent that produced the result.
	AgentID string

	// TaskType echoes the handled task type.
	TaskType string

	// Message is a human-readable description of what was done.
	Message string

	// Document is the document state after the work, when it changed.
	Document *plan.Document

	// Details carries agent-specific output (e.g. booking references).
	Details map[string]string
}

// Reporter lets an agent body publish running progress. progress is
// 0-100; stage names the current phase.
type Reporter func(progress int, stage, message string)

// Agent is one capability-scoped worker.
type Agent interface {
	// Capabilities declares identity, task types, and routing metadata.
	Capabilities() registry.Capabilities

	// Run performs the task. Progress goes through report; the executor
	// wraps the call with lifecycle events and panic recovery.
	Run(ctx context.Context, task Task, report Reporter) (*Result, error)
}
