package llm

import (
	"context"
	"encoding/json"
	"fmt"

	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/plan"
)

// GeneratorConfig holds change generation settings.
type GeneratorConfig struct {
	// MaxTokens bounds the generation response.
	MaxTokens int
}

// DefaultGeneratorConfig returns configuration with sensible defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{MaxTokens: 4096}
}

// Generator turns a free-form instruction plus the current plan state
// into a structured ChangeSet.
type Generator struct {
	provider Provider
	config   GeneratorConfig
}

// NewGenerator creates a generator backed by the given provider.
func NewGenerator(provider Provider, cfg GeneratorConfig) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultGeneratorConfig().MaxTokens
	}
	return &Generator{provider: provider, config: cfg}
}

const generatorSystemPrompt = `You edit a day-by-day plan document by emitting change sets.
Respond with ONLY a JSON object, no prose:
{
  "name": "<short change name>",
  "scope": "trip" | "day",
  "operations": [
    {"op": "insert", "day": <n>, "position": <idx or -1>, "node": {"type": "...", "title": "...", "start": "HH:MM", "end": "HH:MM", "cost": 0, "notes": "..."}},
    {"op": "replace", "day": <n>, "node_id": "<id from the plan summary>", "node": {...}, "unlock": false},
    {"op": "delete", "day": <n>, "node_id": "<id>"},
    {"op": "move", "day": <n>, "node_id": "<id>", "position": <idx>, "start": "HH:MM", "end": "HH:MM"}
  ],
  "reason": "<why>"
}
Only reference node IDs that appear in the plan summary. Do not invent IDs.`

// GenerateChangeSet asks the model for operations implementing the
// instruction. A malformed model answer is recoverable: it surfaces as
// an EXTERNAL_SERVICE error so the caller can report it without
// treating it as a system fault.
func (g *Generator) GenerateChangeSet(ctx context.Context, instruction, contextSummary string) (*plan.ChangeSet, error) {
	if g.provider == nil {
		return nil, planerr.New(planerr.ErrCodeInternal, "no LLM provider configured for generation")
	}

	user := fmt.Sprintf("Current plan:\n%s\n\nInstruction:\n%s", contextSummary, instruction)

	resp, err := g.provider.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: generatorSystemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens: g.config.MaxTokens,
	})
	if err != nil {
		return nil, planerr.ExternalService("generator", err)
	}

	var cs plan.ChangeSet
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Content)), &cs); err != nil {
		return nil, planerr.ExternalService("generator",
			fmt.Errorf("unparseable change set: %w", err))
	}
	if err := cs.Validate(); err != nil {
		return nil, planerr.ExternalService("generator",
			fmt.Errorf("invalid change set: %w", err))
	}
	return &cs, nil
}
