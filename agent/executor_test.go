package agent

import (
	"context"
	"errors"
	"testing"

	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/events"
	"github.com/vinayprograms/plankit/registry"
)

// fakeAgent is a scripted agent for executor tests.
type fakeAgent struct {
	caps registry.Capabilities
	run  func(ctx context.Context, task Task, report Reporter) (*Result, error)
}

func (a *fakeAgent) Capabilities() registry.Capabilities { return a.caps }

func (a *fakeAgent) Run(ctx context.Context, task Task, report Reporter) (*Result, error) {
	return a.run(ctx, task, report)
}

func editAgent(run func(ctx context.Context, task Task, report Reporter) (*Result, error)) *fakeAgent {
	return &fakeAgent{
		caps: registry.Capabilities{
			AgentID:      "editor",
			TaskTypes:    []string{"edit"},
			ChatEligible: true,
		},
		run: run,
	}
}

// collectEvents registers a recording sink for a document.
func collectEvents(t *testing.T, bus *events.Bus, docID string) func() []events.Event {
	t.Helper()
	var collected []events.Event
	sink := events.SinkFunc(func(e events.Event) error {
		collected = append(collected, e)
		return nil
	})
	if err := bus.Register(docID, sink); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return func() []events.Event { return collected }
}

func TestExecutor_Lifecycle(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	exec := NewExecutor(bus, nil)

	task := NewTask("edit", "d1", "retitle the museum")
	got := collectEvents(t, bus, "d1")

	a := editAgent(func(ctx context.Context, task Task, report Reporter) (*Result, error) {
		report(40, "generate", "thinking")
		report(80, "apply", "committing")
		return &Result{Message: "edited"}, nil
	})

	result, err := exec.Execute(context.Background(), a, task)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.AgentID != "editor" || result.TaskType != "edit" {
		t.Errorf("result attribution = %s/%s", result.AgentID, result.TaskType)
	}

	evs := got()
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 4 (queued, 2 running, completed)", len(evs))
	}
	wantStatus := []events.Status{events.StatusQueued, events.StatusRunning, events.StatusRunning, events.StatusCompleted}
	for i, want := range wantStatus {
		if evs[i].Status != want {
			t.Errorf("event %d status = %s, want %s", i, evs[i].Status, want)
		}
	}
	if evs[1].Progress != 40 || evs[2].Progress != 80 {
		t.Errorf("running progress = %d, %d", evs[1].Progress, evs[2].Progress)
	}
	if evs[3].Message != "edited" {
		t.Errorf("completed message = %q", evs[3].Message)
	}
}

func TestExecutor_UnsupportedTaskFailsFast(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	exec := NewExecutor(bus, nil)

	got := collectEvents(t, bus, "d1")
	a := editAgent(func(ctx context.Context, task Task, report Reporter) (*Result, error) {
		t.Fatal("agent body must not run for an undeclared task type")
		return nil, nil
	})

	_, err := exec.Execute(context.Background(), a, NewTask("book", "d1", "x"))
	if !planerr.Is(err, planerr.ErrCodeUnsupportedTask) {
		t.Fatalf("expected UNSUPPORTED_TASK, got %v", err)
	}
	if len(got()) != 0 {
		t.Errorf("validation failure should publish no events, got %d", len(got()))
	}
}

func TestExecutor_FailurePublishesExactlyOneTerminal(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	exec := NewExecutor(bus, nil)

	got := collectEvents(t, bus, "d1")
	bodyErr := errors.New("generation exploded")
	a := editAgent(func(ctx context.Context, task Task, report Reporter) (*Result, error) {
		report(30, "generate", "working")
		return nil, bodyErr
	})

	_, err := exec.Execute(context.Background(), a, NewTask("edit", "d1", "x"))
	if err == nil || !errors.Is(err, bodyErr) {
		t.Fatalf("original error should be preserved, got %v", err)
	}

	evs := got()
	terminals := 0
	for _, e := range evs {
		if e.Status.IsTerminal() {
			terminals++
			if e.Status != events.StatusFailed {
				t.Errorf("terminal status = %s, want failed", e.Status)
			}
		}
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want exactly 1", terminals)
	}
}

func TestExecutor_PanicTranslated(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	exec := NewExecutor(bus, nil)

	got := collectEvents(t, bus, "d1")
	a := editAgent(func(ctx context.Context, task Task, report Reporter) (*Result, error) {
		panic("nil map write")
	})

	result, err := exec.Execute(context.Background(), a, NewTask("edit", "d1", "x"))
	if result != nil {
		t.Error("panicked run must not return a result")
	}
	if !planerr.Is(err, planerr.ErrCodePanic) {
		t.Fatalf("expected PANIC, got %v", err)
	}

	evs := got()
	last := evs[len(evs)-1]
	if last.Status != events.StatusFailed {
		t.Errorf("last event status = %s, want failed", last.Status)
	}
}

func TestExecutor_InvalidTask(t *testing.T) {
	exec := NewExecutor(nil, nil)
	a := editAgent(func(ctx context.Context, task Task, report Reporter) (*Result, error) {
		return &Result{}, nil
	})

	_, err := exec.Execute(context.Background(), a, Task{Type: "edit"})
	if !planerr.Is(err, planerr.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for missing document, got %v", err)
	}
}

func TestExecutor_ProgressClamped(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	exec := NewExecutor(bus, nil)

	got := collectEvents(t, bus, "d1")
	a := editAgent(func(ctx context.Context, task Task, report Reporter) (*Result, error) {
		report(-5, "", "")
		report(150, "", "")
		return &Result{}, nil
	})

	if _, err := exec.Execute(context.Background(), a, NewTask("edit", "d1", "x")); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	evs := got()
	if evs[1].Progress != 0 || evs[2].Progress != 100 {
		t.Errorf("clamped progress = %d, %d", evs[1].Progress, evs[2].Progress)
	}
}
