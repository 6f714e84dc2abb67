package plan

import (
	"testing"

	"github.com/vinayprograms/plankit/errors"
)

func newTestDocument() *Document {
	d := NewDocument("test trip", 3)
	n1 := NewNode("activity", "Museum visit")
	n1.Start = "10:00"
	n1.End = "12:00"
	n1.Cost = 25
	n2 := NewNode("meal", "Lunch")
	n2.Start = "12:30"
	d.Day(1).Nodes = append(d.Day(1).Nodes, n1, n2)
	d.Day(2).Nodes = append(d.Day(2).Nodes, NewNode("transfer", "Train to coast"))
	return d
}

func TestNewDocument(t *testing.T) {
	d := NewDocument("trip", 4)

	if d.Version != 1 {
		t.Errorf("Version = %d, want 1", d.Version)
	}
	if len(d.Days) != 4 {
		t.Fatalf("len(Days) = %d, want 4", len(d.Days))
	}
	for i, day := range d.Days {
		if day.Number != i+1 {
			t.Errorf("Days[%d].Number = %d, want %d", i, day.Number, i+1)
		}
	}
	if d.ID == "" {
		t.Error("ID should be assigned")
	}
}

func TestDocumentClone(t *testing.T) {
	d := newTestDocument()
	d.Settings = map[string]string{"currency": "EUR"}

	clone := d.Clone()

	// Mutating the clone must not touch the original
	clone.Day(1).Nodes[0].Title = "changed"
	clone.Settings["currency"] = "USD"

	if d.Day(1).Nodes[0].Title != "Museum visit" {
		t.Error("clone mutation leaked into original node")
	}
	if d.Settings["currency"] != "EUR" {
		t.Error("clone mutation leaked into original settings")
	}
}

func TestApplyInsert(t *testing.T) {
	d := newTestDocument()
	node := NewNode("activity", "Boat tour")

	err := d.ApplyOperation(ChangeOperation{Op: OpInsert, Day: 2, Node: node})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	got, day := d.FindNode(node.ID)
	if got == nil {
		t.Fatal("inserted node not found")
	}
	if day.Number != 2 {
		t.Errorf("node inserted into day %d, want 2", day.Number)
	}
}

func TestApplyInsertAtPosition(t *testing.T) {
	d := newTestDocument()
	node := NewNode("meal", "Breakfast")

	err := d.ApplyOperation(ChangeOperation{Op: OpInsert, Day: 1, Node: node, Position: 0})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	if d.Day(1).Nodes[0].ID != node.ID {
		t.Errorf("node at position 0 = %q, want %q", d.Day(1).Nodes[0].Title, node.Title)
	}
	if len(d.Day(1).Nodes) != 3 {
		t.Errorf("len(Nodes) = %d, want 3", len(d.Day(1).Nodes))
	}
}

func TestApplyInsertAssignsID(t *testing.T) {
	d := newTestDocument()

	err := d.ApplyOperation(ChangeOperation{Op: OpInsert, Day: 1, Node: &Node{Type: "meal", Title: "Dinner"}})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	nodes := d.Day(1).Nodes
	if nodes[len(nodes)-1].ID == "" {
		t.Error("insert should assign an ID when the payload has none")
	}
}

func TestApplyInsertMissingDay(t *testing.T) {
	d := newTestDocument()

	err := d.ApplyOperation(ChangeOperation{Op: OpInsert, Day: 9, Node: NewNode("x", "y")})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestApplyReplace(t *testing.T) {
	d := newTestDocument()
	target := d.Day(1).Nodes[0]

	err := d.ApplyOperation(ChangeOperation{
		Op:     OpReplace,
		NodeID: target.ID,
		Node:   &Node{Type: "activity", Title: "Gallery visit", Cost: 30},
	})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	got, _ := d.FindNode(target.ID)
	if got.Title != "Gallery visit" {
		t.Errorf("Title = %q, want %q", got.Title, "Gallery visit")
	}
	if got.Cost != 30 {
		t.Errorf("Cost = %v, want 30", got.Cost)
	}
	if got.ID != target.ID {
		t.Error("replace must keep the stable node ID")
	}
}

func TestApplyReplaceLocked(t *testing.T) {
	d := newTestDocument()
	target := d.Day(1).Nodes[0]
	target.Locked = true

	err := d.ApplyOperation(ChangeOperation{
		Op:     OpReplace,
		NodeID: target.ID,
		Node:   &Node{Title: "X"},
	})
	if !errors.Is(err, errors.ErrCodeNodeLocked) {
		t.Fatalf("expected NODE_LOCKED, got %v", err)
	}

	got, _ := d.FindNode(target.ID)
	if got.Title != "Museum visit" {
		t.Error("locked node must not change")
	}
}

func TestApplyReplaceUnlock(t *testing.T) {
	d := newTestDocument()
	target := d.Day(1).Nodes[0]
	target.Locked = true

	err := d.ApplyOperation(ChangeOperation{
		Op:     OpReplace,
		NodeID: target.ID,
		Node:   &Node{Type: "activity", Title: "X"},
		Unlock: true,
	})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	got, _ := d.FindNode(target.ID)
	if got.Title != "X" {
		t.Errorf("Title = %q, want %q", got.Title, "X")
	}
}

func TestApplyDelete(t *testing.T) {
	d := newTestDocument()
	target := d.Day(1).Nodes[1]

	err := d.ApplyOperation(ChangeOperation{Op: OpDelete, NodeID: target.ID})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	if got, _ := d.FindNode(target.ID); got != nil {
		t.Error("deleted node still present")
	}
	if len(d.Day(1).Nodes) != 1 {
		t.Errorf("len(Nodes) = %d, want 1", len(d.Day(1).Nodes))
	}
}

func TestApplyDeleteNotFound(t *testing.T) {
	d := newTestDocument()

	err := d.ApplyOperation(ChangeOperation{Op: OpDelete, NodeID: "nonexistent"})
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("expected NODE_NOT_FOUND, got %v", err)
	}
}

func TestApplyMove(t *testing.T) {
	d := newTestDocument()
	target := d.Day(1).Nodes[0]

	err := d.ApplyOperation(ChangeOperation{
		Op:       OpMove,
		NodeID:   target.ID,
		Day:      3,
		Position: -1,
		Start:    "14:00",
		End:      "16:00",
	})
	if err != nil {
		t.Fatalf("ApplyOperation error: %v", err)
	}

	got, day := d.FindNode(target.ID)
	if day.Number != 3 {
		t.Errorf("node in day %d, want 3", day.Number)
	}
	if got.Start != "14:00" || got.End != "16:00" {
		t.Errorf("timing = %s-%s, want 14:00-16:00", got.Start, got.End)
	}
	if len(d.Day(1).Nodes) != 1 {
		t.Error("node not detached from source day")
	}
}

func TestApplyMoveLocked(t *testing.T) {
	d := newTestDocument()
	target := d.Day(1).Nodes[0]
	target.Locked = true

	err := d.ApplyOperation(ChangeOperation{Op: OpMove, NodeID: target.ID, Day: 2})
	if !errors.Is(err, errors.ErrCodeNodeLocked) {
		t.Errorf("expected NODE_LOCKED, got %v", err)
	}
}

func TestChangeSetValidate(t *testing.T) {
	cs := &ChangeSet{Name: "empty"}
	if err := cs.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty change set, got %v", err)
	}

	cs = &ChangeSet{Operations: []ChangeOperation{{Op: OpInsert}}}
	if err := cs.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for insert without node, got %v", err)
	}

	cs = &ChangeSet{Operations: []ChangeOperation{{Op: OpDelete}}}
	if err := cs.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for delete without node_id, got %v", err)
	}

	cs = &ChangeSet{Operations: []ChangeOperation{
		{Op: OpInsert, Day: 1, Node: NewNode("a", "b")},
	}}
	if err := cs.Validate(); err != nil {
		t.Errorf("valid change set rejected: %v", err)
	}
}

func TestTotalCost(t *testing.T) {
	d := newTestDocument()
	d.Day(2).Nodes[0].Cost = 40

	if got := d.Day(1).TotalCost(); got != 25 {
		t.Errorf("day 1 TotalCost = %v, want 25", got)
	}
	if got := d.TotalCost(); got != 65 {
		t.Errorf("TotalCost = %v, want 65", got)
	}
}

func TestDiffDocuments(t *testing.T) {
	old := newTestDocument()
	new := old.Clone()

	// Modify one node, add one, delete one, move one
	modified := new.Day(1).Nodes[0]
	modified.Cost = 99

	added := NewNode("activity", "Hike")
	new.Day(3).Nodes = append(new.Day(3).Nodes, added)

	deleted := new.Day(1).Nodes[1]
	new.ApplyOperation(ChangeOperation{Op: OpDelete, NodeID: deleted.ID})

	moved := new.Day(2).Nodes[0]
	new.ApplyOperation(ChangeOperation{Op: OpMove, NodeID: moved.ID, Day: 3, Position: -1})

	diff := DiffDocuments(old, new)

	if !contains(diff.Modified[1], modified.ID) {
		t.Errorf("Modified[1] = %v, want %s", diff.Modified[1], modified.ID)
	}
	if !contains(diff.Added[3], added.ID) {
		t.Errorf("Added[3] = %v, want %s", diff.Added[3], added.ID)
	}
	if !contains(diff.Removed[1], deleted.ID) {
		t.Errorf("Removed[1] = %v, want %s", diff.Removed[1], deleted.ID)
	}
	// Moved node shows as removed from day 2, added to day 3
	if !contains(diff.Removed[2], moved.ID) || !contains(diff.Added[3], moved.ID) {
		t.Errorf("move not reflected: removed=%v added=%v", diff.Removed[2], diff.Added[3])
	}
}

func TestDiffEmpty(t *testing.T) {
	d := newTestDocument()
	diff := DiffDocuments(d, d.Clone())

	if !diff.Empty() {
		t.Errorf("diff of identical documents should be empty, got %+v", diff)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
