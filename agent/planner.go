package agent

import (
	"context"
	"fmt"

	"github.com/vinayprograms/plankit/engine"
	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/llm"
	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/registry"
)

// PlannerConfig holds planner settings.
type PlannerConfig struct {
	// BatchDays is how many days are generated per model call.
	BatchDays int

	// Priority for registry resolution.
	Priority int
}

// DefaultPlannerConfig returns configuration with sensible defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{BatchDays: 3, Priority: 10}
}

// Planner fills a document with generated content, batch by batch. Long
// generations cancel cooperatively between batches; a canceled run
// commits nothing.
type Planner struct {
	generator *llm.Generator
	engine    *engine.Engine
	config    PlannerConfig
}

// NewPlanner creates a planner agent.
func NewPlanner(generator *llm.Generator, eng *engine.Engine, cfg PlannerConfig) *Planner {
	if cfg.BatchDays <= 0 {
		cfg.BatchDays = DefaultPlannerConfig().BatchDays
	}
	return &Planner{generator: generator, engine: eng, config: cfg}
}

// Capabilities implements Agent.
func (p *Planner) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		AgentID:      "planner",
		Name:         "Plan Generator",
		TaskTypes:    []string{"plan", "replan"},
		Priority:     p.config.Priority,
		ChatEligible: true,
	}
}

// Run implements Agent.
func (p *Planner) Run(ctx context.Context, task Task, report Reporter) (*Result, error) {
	doc, err := p.engine.Get(ctx, task.DocumentID)
	if err != nil {
		return nil, err
	}
	if len(doc.Days) == 0 {
		return nil, planerr.InvalidInput("document has no days to plan",
			planerr.WithDocumentID(task.DocumentID))
	}

	summary := llm.Summarize(doc, 0)
	totalDays := len(doc.Days)

	// Generate per batch, commit once at the end: cancellation between
	// batches discards everything generated so far.
	var ops []plan.ChangeOperation
	for start := 1; start <= totalDays; start += p.config.BatchDays {
		select {
		case <-ctx.Done():
			return nil, planerr.Wrap(ctx.Err(), "planning canceled",
				planerr.WithDocumentID(task.DocumentID))
		default:
		}

		end := start + p.config.BatchDays - 1
		if end > totalDays {
			end = totalDays
		}

		instruction := fmt.Sprintf("%s\n\nGenerate the schedule for days %d through %d only, as insert operations.",
			task.Instruction, start, end)
		cs, err := p.generator.GenerateChangeSet(ctx, instruction, summary)
		if err != nil {
			return nil, err
		}
		for _, op := range cs.Operations {
			if op.Op != plan.OpInsert || op.Day < start || op.Day > end {
				continue
			}
			ops = append(ops, op)
		}

		report(end*100/totalDays, "generate", fmt.Sprintf("planned days %d-%d", start, end))
	}

	if len(ops) == 0 {
		return nil, planerr.ExternalService("generator",
			fmt.Errorf("model produced no usable operations"))
	}

	result, err := p.engine.Apply(ctx, task.DocumentID, &plan.ChangeSet{
		Name:       "generated plan",
		Scope:      plan.ScopeTrip,
		Operations: ops,
		Reason:     task.Instruction,
		AgentID:    "planner",
		UserID:     task.UserID,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Message:  fmt.Sprintf("planned %d items across %d days", len(ops), totalDays),
		Document: result.Document,
	}, nil
}
