package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	planerr "github.com/vinayprograms/plankit/errors"
)

// Intent is the classifier's reading of a user message.
type Intent struct {
	// Intent is a short restatement of what the user wants.
	Intent string `json:"intent"`

	// TaskType is the routing key (e.g. "plan", "edit", "book").
	TaskType string `json:"task_type"`

	// Confidence is the model's self-reported 0-1 confidence.
	Confidence float64 `json:"confidence"`
}

// ClassifierConfig holds classifier settings.
type ClassifierConfig struct {
	// TaskTypes the classifier may choose from.
	TaskTypes []string

	// DefaultTaskType is used when the model's answer cannot be parsed.
	DefaultTaskType string

	// MaxTokens bounds the classification response.
	MaxTokens int
}

// DefaultClassifierConfig returns configuration with sensible defaults.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		TaskTypes:       []string{"plan", "replan", "edit", "book"},
		DefaultTaskType: "edit",
		MaxTokens:       256,
	}
}

// Classifier maps free-form user messages to task types for routing.
type Classifier struct {
	provider Provider
	config   ClassifierConfig
}

// NewClassifier creates a classifier backed by the given provider.
func NewClassifier(provider Provider, cfg ClassifierConfig) *Classifier {
	if len(cfg.TaskTypes) == 0 {
		cfg.TaskTypes = DefaultClassifierConfig().TaskTypes
	}
	if cfg.DefaultTaskType == "" {
		cfg.DefaultTaskType = DefaultClassifierConfig().DefaultTaskType
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultClassifierConfig().MaxTokens
	}
	return &Classifier{provider: provider, config: cfg}
}

const classifierSystemPrompt = `You classify user requests about a day-by-day plan document.
Respond with ONLY a JSON object, no prose, of the form:
{"intent": "<one sentence restating the request>", "task_type": "<one of: %s>", "confidence": <0.0-1.0>}`

// Classify determines the task type for a user message. The document
// summary gives the model the current plan state. An unparseable model
// answer falls back to the configured default task type instead of
// failing the route.
func (c *Classifier) Classify(ctx context.Context, text, contextSummary string) (*Intent, error) {
	if c.provider == nil {
		return nil, planerr.New(planerr.ErrCodeInternal, "no LLM provider configured for classification")
	}

	system := fmt.Sprintf(classifierSystemPrompt, strings.Join(c.config.TaskTypes, ", "))
	user := fmt.Sprintf("Current plan:\n%s\n\nUser request:\n%s", contextSummary, text)

	resp, err := c.provider.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		return nil, planerr.ExternalService("classifier", err)
	}

	intent := &Intent{}
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Content)), intent); err != nil || intent.TaskType == "" {
		// Unparseable answer: route to the default rather than failing.
		return &Intent{
			Intent:     text,
			TaskType:   c.config.DefaultTaskType,
			Confidence: 0,
		}, nil
	}

	if !c.knownTaskType(intent.TaskType) {
		intent.TaskType = c.config.DefaultTaskType
		intent.Confidence = 0
	}
	return intent, nil
}

func (c *Classifier) knownTaskType(taskType string) bool {
	for _, t := range c.config.TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}

// ExtractJSON strips markdown code fences and surrounding prose from a
// model answer, returning the first top-level JSON value.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.Index(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		return strings.TrimSpace(content)
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	open := content[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return content[start:]
}
