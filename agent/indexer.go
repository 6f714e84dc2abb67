package agent

import (
	"context"
	"fmt"

	"github.com/vinayprograms/plankit/engine"
	"github.com/vinayprograms/plankit/registry"
	"github.com/vinayprograms/plankit/search"
)

// Indexer rebuilds the search index for a document. It is a pipeline
// task: not chat-eligible, so conversational routing can never reach it.
type Indexer struct {
	engine *engine.Engine
	index  *search.Index
}

// NewIndexer creates an indexer agent.
func NewIndexer(eng *engine.Engine, index *search.Index) *Indexer {
	return &Indexer{engine: eng, index: index}
}

// Capabilities implements Agent.
func (i *Indexer) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		AgentID:      "indexer",
		Name:         "Search Indexer",
		TaskTypes:    []string{"index"},
		Priority:     1,
		ChatEligible: false,
	}
}

// Run implements Agent.
func (i *Indexer) Run(ctx context.Context, task Task, report Reporter) (*Result, error) {
	doc, err := i.engine.Get(ctx, task.DocumentID)
	if err != nil {
		return nil, err
	}

	report(50, "index", "rebuilding the node index")
	if err := i.index.IndexDocument(doc); err != nil {
		return nil, err
	}

	return &Result{
		Message: fmt.Sprintf("indexed %d nodes", doc.NodeCount()),
	}, nil
}
