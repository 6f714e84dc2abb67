package revision

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/state"
)

func testRecord(docID string, version int) *Record {
	doc := plan.NewDocument("Trip", 2)
	doc.ID = docID
	doc.Version = version
	node := plan.NewNode("activity", fmt.Sprintf("Stop v%d", version))
	doc.Days[0].Nodes = append(doc.Days[0].Nodes, node)

	return &Record{
		ID:         uuid.New().String(),
		DocumentID: docID,
		Version:    version,
		AgentID:    "editor",
		Reason:     fmt.Sprintf("change %d", version),
		Snapshot:   doc,
	}
}

func newTestStore(t *testing.T) *StateStore {
	t.Helper()
	kv := state.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	return NewStateStore(kv)
}

func TestStateStore_SaveAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for v := 2; v <= 4; v++ {
		if err := s.Save(ctx, testRecord("d1", v)); err != nil {
			t.Fatalf("Save v%d error: %v", v, err)
		}
	}

	history, err := s.History(ctx, "d1")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(history))
	}
	// Newest first.
	for i, want := range []int{4, 3, 2} {
		if history[i].Version != want {
			t.Errorf("history[%d].Version = %d, want %d", i, history[i].Version, want)
		}
	}
}

func TestStateStore_HistoryIsolatedPerDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, testRecord("d1", 2))
	s.Save(ctx, testRecord("d2", 2))

	history, err := s.History(ctx, "d1")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(history) != 1 || history[0].DocumentID != "d1" {
		t.Errorf("history = %+v", history)
	}
}

func TestStateStore_Reconstruct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := testRecord("d1", 2)
	nodeTitle := record.Snapshot.Days[0].Nodes[0].Title
	if err := s.Save(ctx, record); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	doc, err := s.Reconstruct(ctx, "d1", record.ID)
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if doc.Version != 2 {
		t.Errorf("Version = %d, want 2", doc.Version)
	}
	if doc.Days[0].Nodes[0].Title != nodeTitle {
		t.Errorf("node title = %q, want %q", doc.Days[0].Nodes[0].Title, nodeTitle)
	}

	// Reconstructed copy is isolated from the stored snapshot.
	doc.Days[0].Nodes[0].Title = "mutated"
	again, _ := s.Reconstruct(ctx, "d1", record.ID)
	if again.Days[0].Nodes[0].Title != nodeTitle {
		t.Error("Reconstruct must return an isolated copy")
	}
}

func TestStateStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get(context.Background(), "d1", "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStateStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := testRecord("d1", 2)
	s.Save(ctx, record)

	if err := s.Delete(ctx, "d1", record.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, "d1", record.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	history, _ := s.History(ctx, "d1")
	if len(history) != 0 {
		t.Errorf("history after delete = %d records, want 0", len(history))
	}
}

func TestStateStore_SaveInvalid(t *testing.T) {
	s := newTestStore(t)

	bad := &Record{DocumentID: "d1", Version: 2}
	if err := s.Save(context.Background(), bad); err != ErrInvalidID {
		t.Errorf("expected ErrInvalidID for missing snapshot, got %v", err)
	}
}
