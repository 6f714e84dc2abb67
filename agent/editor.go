package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinayprograms/plankit/engine"
	"github.com/vinayprograms/plankit/llm"
	"github.com/vinayprograms/plankit/registry"
	"github.com/vinayprograms/plankit/search"
)

// EditorConfig holds editor settings.
type EditorConfig struct {
	// SummaryBudget caps the plan summary passed to the model.
	SummaryBudget int

	// SearchLimit caps resolved node reference hints.
	SearchLimit int

	// Priority for registry resolution.
	Priority int
}

// DefaultEditorConfig returns configuration with sensible defaults.
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		SummaryBudget: llm.DefaultSummaryBudget,
		SearchLimit:   5,
		Priority:      10,
	}
}

// Editor turns free-form edit requests into committed change sets:
// budgeted summary with stable node IDs, node references resolved via
// the search index, generation, then an atomic apply.
type Editor struct {
	generator *llm.Generator
	engine    *engine.Engine
	index     *search.Index
	config    EditorConfig
}

// NewEditor creates an editor agent. index may be nil to skip reference
// resolution.
func NewEditor(generator *llm.Generator, eng *engine.Engine, index *search.Index, cfg EditorConfig) *Editor {
	if cfg.SummaryBudget <= 0 {
		cfg.SummaryBudget = DefaultEditorConfig().SummaryBudget
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultEditorConfig().SearchLimit
	}
	return &Editor{generator: generator, engine: eng, index: index, config: cfg}
}

// Capabilities implements Agent.
func (e *Editor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		AgentID:      "editor",
		Name:         "Plan Editor",
		TaskTypes:    []string{"edit"},
		Priority:     e.config.Priority,
		ChatEligible: true,
	}
}

// Run implements Agent.
func (e *Editor) Run(ctx context.Context, task Task, report Reporter) (*Result, error) {
	doc, err := e.engine.Get(ctx, task.DocumentID)
	if err != nil {
		return nil, err
	}
	report(10, "summarize", "reading the plan")

	summary := llm.Summarize(doc, e.config.SummaryBudget)
	summary += e.referenceHints(task)

	report(30, "generate", "drafting changes")
	cs, err := e.generator.GenerateChangeSet(ctx, task.Instruction, summary)
	if err != nil {
		return nil, err
	}
	cs.AgentID = "editor"
	cs.UserID = task.UserID
	if cs.Reason == "" {
		cs.Reason = task.Instruction
	}

	report(70, "apply", "committing changes")
	result, err := e.engine.Apply(ctx, task.DocumentID, cs)
	if err != nil {
		return nil, err
	}

	return &Result{
		Message:  fmt.Sprintf("applied %d operations (version %d)", len(cs.Operations), result.Document.Version),
		Document: result.Document,
	}, nil
}

// referenceHints resolves the instruction against the search index so
// the model sees which node IDs the user likely means.
func (e *Editor) referenceHints(task Task) string {
	if e.index == nil {
		return ""
	}
	hits, err := e.index.Query(task.DocumentID, task.Instruction, e.config.SearchLimit)
	if err != nil || len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nLikely referenced nodes:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "  day %d: %s\n", h.Day, h.NodeID)
	}
	return b.String()
}
