package agent

import (
	"context"

	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/events"
	"github.com/vinayprograms/plankit/logging"
)

// Executor runs agents under the lifecycle contract.
type Executor struct {
	bus    *events.Bus
	logger *logging.Logger
}

// NewExecutor creates an executor publishing lifecycle events to bus.
func NewExecutor(bus *events.Bus, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.New()
	}
	return &Executor{
		bus:    bus,
		logger: logger.WithComponent("executor"),
	}
}

// Execute runs one task on one agent.
//
// Validation failures (malformed task, undeclared task type) fail fast
// before any event is published. After the queued event, exactly one
// terminal event follows: completed on success, failed on error or
// recovered panic. The error is returned either way so the caller can
// try the next candidate.
func (e *Executor) Execute(ctx context.Context, a Agent, task Task) (result *Result, err error) {
	if verr := task.Validate(); verr != nil {
		return nil, planerr.InvalidInput(verr.Error(), planerr.WithDocumentID(task.DocumentID))
	}

	caps := a.Capabilities()
	if !caps.HasTaskType(task.Type) {
		return nil, planerr.UnsupportedTask(caps.AgentID, task.Type,
			planerr.WithDocumentID(task.DocumentID))
	}

	e.publish(caps.AgentID, task, events.StatusQueued, 0, "", "queued")

	report := func(progress int, stage, message string) {
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		e.publish(caps.AgentID, task, events.StatusRunning, progress, stage, message)
	}

	defer func() {
		if r := recover(); r != nil {
			err = planerr.RecoverPanic(r)
			result = nil
		}
		if err != nil {
			err = planerr.Wrap(err, "agent "+caps.AgentID+" failed",
				planerr.WithAgentID(caps.AgentID), planerr.WithDocumentID(task.DocumentID))
			e.publish(caps.AgentID, task, events.StatusFailed, 100, "", err.Error())
		} else {
			message := "done"
			if result != nil && result.Message != "" {
				message = result.Message
			}
			e.publish(caps.AgentID, task, events.StatusCompleted, 100, "", message)
		}
	}()

	result, err = a.Run(ctx, task, report)
	if err == nil && result != nil {
		result.AgentID = caps.AgentID
		result.TaskType = task.Type
	}
	return result, err
}

// publish emits one lifecycle event; bus failures are logged, never fatal.
func (e *Executor) publish(agentID string, task Task, status events.Status, progress int, stage, message string) {
	e.logger.AgentLifecycle(agentID, task.DocumentID, status.String(), progress)
	if e.bus == nil {
		return
	}
	event := events.Event{
		AgentID:  agentID,
		Kind:     task.Type,
		Status:   status,
		Progress: progress,
		Stage:    stage,
		Message:  message,
	}
	if err := e.bus.Publish(task.DocumentID, event); err != nil && err != events.ErrBusClosed {
		e.logger.Warn("publish_failed", map[string]interface{}{
			"agent":    agentID,
			"document": task.DocumentID,
			"error":    err.Error(),
		})
	}
}
