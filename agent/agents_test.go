package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/vinayprograms/plankit/booking"
	"github.com/vinayprograms/plankit/engine"
	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/llm"
	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/revision"
	"github.com/vinayprograms/plankit/search"
	"github.com/vinayprograms/plankit/state"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	kv := state.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	return engine.NewEngine(kv, revision.NewStateStore(kv), nil, engine.DefaultConfig())
}

func noReport(progress int, stage, message string) {}

func insertResponse(day int, title string) string {
	return fmt.Sprintf(`{
		"name": "add item",
		"scope": "day",
		"operations": [
			{"op": "insert", "day": %d, "position": -1, "node": {"type": "activity", "title": %q}}
		],
		"reason": "test"
	}`, day, title)
}

func TestPlanner_BatchedGenerationCommitsOnce(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mock := llm.NewMockProvider()
	mock.QueueResponses(
		insertResponse(1, "Harbor walk"),
		insertResponse(2, "Museum visit"),
	)
	planner := NewPlanner(llm.NewGenerator(mock, llm.DefaultGeneratorConfig()), eng,
		PlannerConfig{BatchDays: 1})

	task := NewTask("plan", doc.ID, "plan a weekend")
	result, err := planner.Run(context.Background(), task, noReport)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2 (one per batch)", mock.CallCount())
	}
	// One commit for the whole plan, not one per batch.
	if result.Document.Version != 2 {
		t.Errorf("Version = %d, want 2", result.Document.Version)
	}
	if result.Document.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", result.Document.NodeCount())
	}
}

func TestPlanner_DropsOperationsOutsideBatch(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Model answers with a day outside the requested batch range.
	mock := llm.NewMockProvider()
	mock.SetResponse(insertResponse(5, "Out of range"))
	planner := NewPlanner(llm.NewGenerator(mock, llm.DefaultGeneratorConfig()), eng,
		PlannerConfig{BatchDays: 1})

	_, err = planner.Run(context.Background(), NewTask("plan", doc.ID, "plan"), noReport)
	if !planerr.Is(err, planerr.ErrCodeExternalService) {
		t.Errorf("err = %v, want EXTERNAL_SERVICE (no usable operations)", err)
	}
	got, err := eng.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, document must be unchanged", got.Version)
	}
}

func TestPlanner_CancelBetweenBatchesCommitsNothing(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	mock := llm.NewMockProvider()
	mock.ChatFunc = func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		// Cancel after the first batch succeeds.
		cancel()
		return &llm.ChatResponse{Content: insertResponse(1, "Harbor walk")}, nil
	}
	planner := NewPlanner(llm.NewGenerator(mock, llm.DefaultGeneratorConfig()), eng,
		PlannerConfig{BatchDays: 1})

	_, err = planner.Run(ctx, NewTask("plan", doc.ID, "plan"), noReport)
	if err == nil {
		t.Fatal("expected cancellation error")
	}

	got, err := eng.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != 1 || got.NodeCount() != 0 {
		t.Errorf("doc = v%d with %d nodes, canceled run must commit nothing",
			got.Version, got.NodeCount())
	}
}

func TestEditor_AppliesGeneratedChanges(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	node := plan.NewNode("activity", "Harbor walk")
	if _, err := eng.Apply(context.Background(), doc.ID, &plan.ChangeSet{
		Name:       "seed",
		Scope:      plan.ScopeDay,
		Operations: []plan.ChangeOperation{{Op: plan.OpInsert, Day: 1, Node: node}},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	mock := llm.NewMockProvider()
	mock.SetResponse(fmt.Sprintf(`{
		"name": "retitle",
		"scope": "day",
		"operations": [
			{"op": "replace", "day": 1, "node_id": %q, "node": {"type": "activity", "title": "Sunset harbor walk"}}
		]
	}`, node.ID))

	editor := NewEditor(llm.NewGenerator(mock, llm.DefaultGeneratorConfig()), eng, nil,
		DefaultEditorConfig())
	result, err := editor.Run(context.Background(), NewTask("edit", doc.ID, "make the walk a sunset walk"), noReport)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// The model saw the plan summary with the stable node ID.
	if req := mock.LastRequest(); req == nil || !strings.Contains(req.Messages[1].Content, node.ID) {
		t.Error("summary sent to the model should contain the node ID")
	}

	got, _ := result.Document.FindNode(node.ID)
	if got == nil || got.Title != "Sunset harbor walk" {
		t.Errorf("node = %+v, want retitled", got)
	}
}

func TestEditor_SearchHintsIncluded(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	node := plan.NewNode("activity", "Harbor walk")
	if _, err := eng.Apply(context.Background(), doc.ID, &plan.ChangeSet{
		Name:       "seed",
		Scope:      plan.ScopeDay,
		Operations: []plan.ChangeOperation{{Op: plan.OpInsert, Day: 1, Node: node}},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	index, err := search.NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	current, err := eng.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := index.IndexDocument(current); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	mock := llm.NewMockProvider()
	mock.SetResponse(fmt.Sprintf(`{
		"name": "delete",
		"scope": "day",
		"operations": [{"op": "delete", "day": 1, "node_id": %q}]
	}`, node.ID))

	editor := NewEditor(llm.NewGenerator(mock, llm.DefaultGeneratorConfig()), eng, index,
		DefaultEditorConfig())
	if _, err := editor.Run(context.Background(), NewTask("edit", doc.ID, "remove the harbor walk"), noReport); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if req := mock.LastRequest(); req == nil || !strings.Contains(req.Messages[1].Content, "Likely referenced nodes") {
		t.Error("prompt should carry search-resolved reference hints")
	}
}

// fakeBookingService scripts search and confirm results.
type fakeBookingService struct {
	options       []booking.Option
	searchErr     error
	confirmation  *booking.Confirmation
	confirmErr    error
	confirmedOpts []string
}

func (s *fakeBookingService) Search(ctx context.Context, criteria booking.Criteria) ([]booking.Option, error) {
	return s.options, s.searchErr
}

func (s *fakeBookingService) Confirm(ctx context.Context, optionID, paymentProof string) (*booking.Confirmation, error) {
	s.confirmedOpts = append(s.confirmedOpts, optionID)
	return s.confirmation, s.confirmErr
}

func TestBooking_RecordsNodeAndSection(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc := &fakeBookingService{
		options: []booking.Option{
			{ID: "opt-1", Name: "Hotel Aurora", Price: 180, Start: "15:00", End: "11:00"},
			{ID: "opt-2", Name: "Hostel Basic", Price: 40},
		},
		confirmation: &booking.Confirmation{Reference: "REF-42", OptionID: "opt-1", Status: "confirmed"},
	}
	agent := NewBooking(svc, eng, DefaultBookingConfig())

	task := NewTask("book", doc.ID, "a hotel near the harbor")
	task.Params = map[string]string{"day": "2", "payment_proof": "tok_abc"}

	result, err := agent.Run(context.Background(), task, noReport)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.Details["reference"] != "REF-42" || result.Details["option"] != "opt-1" {
		t.Errorf("Details = %+v", result.Details)
	}
	if len(svc.confirmedOpts) != 1 || svc.confirmedOpts[0] != "opt-1" {
		t.Errorf("confirmed = %v, want the first option", svc.confirmedOpts)
	}

	// Node landed on the requested day.
	day := result.Document.Day(2)
	if day == nil || len(day.Nodes) != 1 || day.Nodes[0].Type != "booking" {
		t.Fatalf("day 2 = %+v, want one booking node", day)
	}
	if day.Nodes[0].Cost != 180 {
		t.Errorf("Cost = %v, want 180", day.Nodes[0].Cost)
	}

	// Section carries the full provider payload.
	var entries []bookingEntry
	if err := json.Unmarshal(result.Document.Sections["bookings"], &entries); err != nil {
		t.Fatalf("unmarshal section: %v", err)
	}
	if len(entries) != 1 || entries[0].Confirmation.Reference != "REF-42" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].NodeID != day.Nodes[0].ID {
		t.Error("section entry should reference the plan node")
	}
}

func TestBooking_NoOptions(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	agent := NewBooking(&fakeBookingService{}, eng, DefaultBookingConfig())
	_, err = agent.Run(context.Background(), NewTask("book", doc.ID, "anything"), noReport)
	if !planerr.Is(err, planerr.ErrCodeExternalService) {
		t.Errorf("err = %v, want EXTERNAL_SERVICE", err)
	}
}

func TestBooking_InvalidDay(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	agent := NewBooking(&fakeBookingService{}, eng, DefaultBookingConfig())
	task := NewTask("book", doc.ID, "anything")
	task.Params = map[string]string{"day": "zero"}

	_, err = agent.Run(context.Background(), task, noReport)
	if !planerr.Is(err, planerr.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestIndexer_RebuildsIndex(t *testing.T) {
	eng := newTestEngine(t)
	doc, err := eng.Create(context.Background(), "Trip", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := eng.Apply(context.Background(), doc.ID, &plan.ChangeSet{
		Name:  "seed",
		Scope: plan.ScopeDay,
		Operations: []plan.ChangeOperation{
			{Op: plan.OpInsert, Day: 1, Node: plan.NewNode("activity", "Harbor walk")},
		},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	index, err := search.NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	indexer := NewIndexer(eng, index)
	result, err := indexer.Run(context.Background(), NewTask("index", doc.ID, ""), noReport)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.Message != "indexed 1 nodes" {
		t.Errorf("Message = %q", result.Message)
	}

	hits, err := index.Query(doc.ID, "harbor", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %d, want 1", len(hits))
	}
}
