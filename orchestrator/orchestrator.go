// Package orchestrator routes conversational requests to agents.
//
// A request is classified to a task type, resolved against the
// capability registry (chat-eligible agents only), then executed against
// the candidates in priority order until one succeeds. Route always
// returns a response; errors and panics are folded into it rather than
// escaping to the caller.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vinayprograms/plankit/agent"
	"github.com/vinayprograms/plankit/engine"
	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/llm"
	"github.com/vinayprograms/plankit/logging"
	"github.com/vinayprograms/plankit/registry"
)

// Request is one conversational message about a document.
type Request struct {
	// DocumentID is the document the conversation is about.
	DocumentID string `json:"document_id"`

	// UserID attributes the request.
	UserID string `json:"user_id,omitempty"`

	// Message is the user's free-form text.
	Message string `json:"message"`
}

// AgentError records one failed candidate attempt.
type AgentError struct {
	// AgentID is the candidate that failed.
	AgentID string `json:"agent_id"`

	// Error is the failure, serialized with its code and category.
	Error *planerr.Error `json:"error"`
}

// Response is the aggregated outcome of routing one request.
type Response struct {
	// Success reports whether any agent completed the task.
	Success bool `json:"success"`

	// TaskType is the classified task type.
	TaskType string `json:"task_type,omitempty"`

	// Intent is the classifier's reading of the message.
	Intent *llm.Intent `json:"intent,omitempty"`

	// AgentID is the agent that succeeded, when one did.
	AgentID string `json:"agent_id,omitempty"`

	// Message is a human-readable summary of the outcome.
	Message string `json:"message"`

	// Result is the successful agent's output.
	Result *agent.Result `json:"-"`

	// Errors lists every failed candidate attempt, in execution order.
	Errors []AgentError `json:"errors,omitempty"`
}

// Config holds orchestrator settings.
type Config struct {
	// SummaryBudget caps the document summary fed to the classifier.
	SummaryBudget int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{SummaryBudget: llm.DefaultSummaryBudget}
}

// Orchestrator classifies, resolves, and dispatches requests.
type Orchestrator struct {
	classifier *llm.Classifier
	registry   registry.Registry
	executor   *agent.Executor
	engine     *engine.Engine
	logger     *logging.Logger
	config     Config

	mu     sync.RWMutex
	agents map[string]agent.Agent
}

// New creates an orchestrator.
func New(classifier *llm.Classifier, reg registry.Registry, executor *agent.Executor, eng *engine.Engine, logger *logging.Logger, cfg Config) *Orchestrator {
	if cfg.SummaryBudget <= 0 {
		cfg.SummaryBudget = DefaultConfig().SummaryBudget
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Orchestrator{
		classifier: classifier,
		registry:   reg,
		executor:   executor,
		engine:     eng,
		logger:     logger.WithComponent("orchestrator"),
		config:     cfg,
		agents:     make(map[string]agent.Agent),
	}
}

// RegisterAgent declares an agent's capabilities and makes it routable.
// Safe to call while requests are being routed.
func (o *Orchestrator) RegisterAgent(a agent.Agent) error {
	caps := a.Capabilities()
	if err := o.registry.Register(caps); err != nil {
		return err
	}
	o.mu.Lock()
	o.agents[caps.AgentID] = a
	o.mu.Unlock()
	return nil
}

// lookupAgent returns the wired agent for an ID.
func (o *Orchestrator) lookupAgent(agentID string) (agent.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.agents[agentID]
	return a, ok
}

// Route handles one request end to end. It never returns an error or
// lets a panic escape; failures are reported inside the response.
func (o *Orchestrator) Route(ctx context.Context, req Request) (resp *Response) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := planerr.RecoverPanic(r)
			resp = &Response{
				Success: false,
				Message: "internal error while routing the request",
				Errors:  []AgentError{{Error: err}},
			}
		}
		agentID := ""
		var routeErr error
		if resp != nil {
			agentID = resp.AgentID
			if !resp.Success && len(resp.Errors) > 0 {
				routeErr = resp.Errors[len(resp.Errors)-1].Error
			}
		}
		o.logger.RouteDone(req.DocumentID, agentID, time.Since(start), routeErr)
	}()

	if req.DocumentID == "" || strings.TrimSpace(req.Message) == "" {
		return &Response{
			Success: false,
			Message: "document ID and message are required",
			Errors:  []AgentError{{Error: planerr.InvalidInput("document ID and message are required")}},
		}
	}

	summary := ""
	if doc, err := o.engine.Get(ctx, req.DocumentID); err == nil {
		summary = llm.Summarize(doc, o.config.SummaryBudget)
	} else {
		return &Response{
			Success: false,
			Message: fmt.Sprintf("document %s not found", req.DocumentID),
			Errors:  []AgentError{{Error: planerr.Wrap(err, "load document failed")}},
		}
	}

	intent, err := o.classifier.Classify(ctx, req.Message, summary)
	if err != nil {
		return &Response{
			Success: false,
			Message: "could not understand the request",
			Errors:  []AgentError{{Error: planerr.Wrap(err, "classification failed")}},
		}
	}
	o.logger.RouteStart(req.DocumentID, intent.TaskType)

	candidates, err := o.registry.Resolve(intent.TaskType, true)
	if err != nil {
		return &Response{
			Success:  false,
			TaskType: intent.TaskType,
			Intent:   intent,
			Message:  "agent resolution failed",
			Errors:   []AgentError{{Error: planerr.Wrap(err, "resolve failed")}},
		}
	}
	if len(candidates) == 0 {
		// Not an error: the system simply has nothing to offer.
		return &Response{
			Success:  false,
			TaskType: intent.TaskType,
			Intent:   intent,
			Message:  fmt.Sprintf("no agent can handle %q requests right now", intent.TaskType),
			Errors: []AgentError{{
				Error: planerr.FromCode(planerr.ErrCodeNoSuitableAgent,
					planerr.WithDocumentID(req.DocumentID)),
			}},
		}
	}

	var attempts []AgentError
	for _, candidate := range candidates {
		a, ok := o.lookupAgent(candidate.AgentID)
		if !ok {
			attempts = append(attempts, AgentError{
				AgentID: candidate.AgentID,
				Error: planerr.Internal(fmt.Sprintf("agent %s is registered but not wired",
					candidate.AgentID)),
			})
			continue
		}

		task := agent.NewTask(intent.TaskType, req.DocumentID, req.Message)
		task.UserID = req.UserID

		result, err := o.executor.Execute(ctx, a, task)
		if err == nil {
			return &Response{
				Success:  true,
				TaskType: intent.TaskType,
				Intent:   intent,
				AgentID:  candidate.AgentID,
				Message:  result.Message,
				Result:   result,
				Errors:   attempts,
			}
		}
		attempts = append(attempts, AgentError{
			AgentID: candidate.AgentID,
			Error:   planerr.Wrap(err, "execution failed"),
		})
	}

	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.AgentID
	}
	return &Response{
		Success:  false,
		TaskType: intent.TaskType,
		Intent:   intent,
		Message:  fmt.Sprintf("all agents failed (%s)", strings.Join(names, ", ")),
		Errors:   attempts,
	}
}
