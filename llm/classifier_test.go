package llm

import (
	"context"
	"errors"
	"testing"

	planerr "github.com/vinayprograms/plankit/errors"
)

func TestClassifier_Classify(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse(`{"intent": "add a museum visit", "task_type": "edit", "confidence": 0.92}`)

	c := NewClassifier(mock, DefaultClassifierConfig())
	intent, err := c.Classify(context.Background(), "add a museum on day 2", "Day 1 ...")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if intent.TaskType != "edit" {
		t.Errorf("TaskType = %q, want edit", intent.TaskType)
	}
	if intent.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", intent.Confidence)
	}
}

func TestClassifier_FencedJSON(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse("```json\n{\"intent\": \"x\", \"task_type\": \"plan\", \"confidence\": 0.8}\n```")

	c := NewClassifier(mock, DefaultClassifierConfig())
	intent, err := c.Classify(context.Background(), "plan a trip", "")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if intent.TaskType != "plan" {
		t.Errorf("TaskType = %q, want plan", intent.TaskType)
	}
}

func TestClassifier_ParseFallback(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse("I think you want to edit the plan.")

	c := NewClassifier(mock, DefaultClassifierConfig())
	intent, err := c.Classify(context.Background(), "do something", "")
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if intent.TaskType != "edit" {
		t.Errorf("TaskType = %q, want default edit", intent.TaskType)
	}
	if intent.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 on fallback", intent.Confidence)
	}
}

func TestClassifier_UnknownTaskType(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse(`{"intent": "x", "task_type": "launch-rocket", "confidence": 0.99}`)

	c := NewClassifier(mock, DefaultClassifierConfig())
	intent, err := c.Classify(context.Background(), "x", "")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if intent.TaskType != "edit" {
		t.Errorf("TaskType = %q, want default for unknown type", intent.TaskType)
	}
}

func TestClassifier_ProviderError(t *testing.T) {
	mock := NewMockProvider()
	mock.SetError(errors.New("connection refused"))

	c := NewClassifier(mock, DefaultClassifierConfig())
	_, err := c.Classify(context.Background(), "x", "")
	if !planerr.Is(err, planerr.ErrCodeExternalService) {
		t.Errorf("expected EXTERNAL_SERVICE, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"Sure! Here it is: {\"a\": 1} Hope that helps.", `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n[1, 2]\n```", `[1, 2]`},
		{`{"nested": {"b": 2}} trailing`, `{"nested": {"b": 2}}`},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
