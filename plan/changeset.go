package plan

import (
	"github.com/vinayprograms/plankit/errors"
)

// OpType is the tag of a ChangeOperation variant.
type OpType string

const (
	// OpInsert adds a new node to a day.
	OpInsert OpType = "insert"

	// OpReplace substitutes an existing node's fields by ID.
	OpReplace OpType = "replace"

	// OpDelete removes a node by ID.
	OpDelete OpType = "delete"

	// OpMove relocates a node across day, position, or timing.
	OpMove OpType = "move"
)

// Valid returns true if the op type is a known variant.
func (o OpType) Valid() bool {
	switch o {
	case OpInsert, OpReplace, OpDelete, OpMove:
		return true
	default:
		return false
	}
}

// Scope declares how much of the document a ChangeSet touches.
type Scope string

const (
	// ScopeTrip covers operations across the whole plan.
	ScopeTrip Scope = "trip"

	// ScopeDay covers operations within a single day.
	ScopeDay Scope = "day"
)

// ChangeOperation is one tagged mutation within a ChangeSet.
type ChangeOperation struct {
	// Op selects the variant.
	Op OpType `json:"op"`

	// Day is the 1-based target day number. For move it is the
	// destination day.
	Day int `json:"day,omitempty"`

	// NodeID targets an existing node (replace, delete, move).
	NodeID string `json:"node_id,omitempty"`

	// Node is the full payload for insert, or the replacement fields for
	// replace. The node keeps its original ID on replace.
	Node *Node `json:"node,omitempty"`

	// Position is the 0-based slot within the day for insert/move.
	// Negative means append.
	Position int `json:"position,omitempty"`

	// Start and End optionally set a new timing window (replace, move).
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Unlock explicitly permits mutating a locked node.
	Unlock bool `json:"unlock,omitempty"`
}

// ChangeSet is a named, attributable batch of operations. Operations apply
// in order, atomically: all or none.
type ChangeSet struct {
	// Name describes the batch (e.g. "add museum visit").
	Name string `json:"name"`

	// Scope is trip-wide or single-day.
	Scope Scope `json:"scope"`

	// Operations apply in array order.
	Operations []ChangeOperation `json:"operations"`

	// Reason records why the change was made.
	Reason string `json:"reason,omitempty"`

	// AgentID is the originating agent.
	AgentID string `json:"agent_id,omitempty"`

	// UserID is the acting user, passed through opaquely.
	UserID string `json:"user_id,omitempty"`
}

// Validate checks the change set for structural problems before any
// operation is applied.
func (cs *ChangeSet) Validate() error {
	if len(cs.Operations) == 0 {
		return errors.InvalidInput("change set has no operations")
	}
	for i, op := range cs.Operations {
		if !op.Op.Valid() {
			return errors.Newf(errors.ErrCodeInvalidInput, "operation %d: unknown op %q", i, op.Op)
		}
		switch op.Op {
		case OpInsert:
			if op.Node == nil {
				return errors.Newf(errors.ErrCodeInvalidInput, "operation %d: insert requires a node payload", i)
			}
		case OpReplace:
			if op.NodeID == "" || op.Node == nil {
				return errors.Newf(errors.ErrCodeInvalidInput, "operation %d: replace requires node_id and payload", i)
			}
		case OpDelete, OpMove:
			if op.NodeID == "" {
				return errors.Newf(errors.ErrCodeInvalidInput, "operation %d: %s requires node_id", i, op.Op)
			}
		}
	}
	return nil
}

// ApplyOperation mutates the document in place according to one operation.
// Callers apply against a working copy; the document itself gives no
// atomicity guarantees.
func (d *Document) ApplyOperation(op ChangeOperation) error {
	switch op.Op {
	case OpInsert:
		return d.applyInsert(op)
	case OpReplace:
		return d.applyReplace(op)
	case OpDelete:
		return d.applyDelete(op)
	case OpMove:
		return d.applyMove(op)
	default:
		return errors.Newf(errors.ErrCodeInvalidInput, "unknown op %q", op.Op)
	}
}

func (d *Document) applyInsert(op ChangeOperation) error {
	day := d.Day(op.Day)
	if day == nil {
		return errors.Newf(errors.ErrCodeInvalidInput, "day %d does not exist", op.Day)
	}

	node := *op.Node
	if node.ID == "" {
		fresh := NewNode(node.Type, node.Title)
		node.ID = fresh.ID
	}
	if existing, _ := d.FindNode(node.ID); existing != nil {
		return errors.Newf(errors.ErrCodeInvalidInput, "node %s already exists", node.ID)
	}

	day.Nodes = insertAt(day.Nodes, &node, op.Position)
	return nil
}

func (d *Document) applyReplace(op ChangeOperation) error {
	node, _ := d.FindNode(op.NodeID)
	if node == nil {
		return errors.NodeNotFound(op.NodeID)
	}
	if node.Locked && !op.Unlock {
		return errors.NodeLocked(op.NodeID)
	}

	// Substitute fields, keeping the stable ID.
	repl := *op.Node
	repl.ID = node.ID
	if op.Start != "" {
		repl.Start = op.Start
	}
	if op.End != "" {
		repl.End = op.End
	}
	*node = repl
	return nil
}

func (d *Document) applyDelete(op ChangeOperation) error {
	node, day := d.FindNode(op.NodeID)
	if node == nil {
		return errors.NodeNotFound(op.NodeID)
	}
	if node.Locked && !op.Unlock {
		return errors.NodeLocked(op.NodeID)
	}

	for i, n := range day.Nodes {
		if n.ID == op.NodeID {
			day.Nodes = append(day.Nodes[:i], day.Nodes[i+1:]...)
			break
		}
	}
	return nil
}

func (d *Document) applyMove(op ChangeOperation) error {
	node, from := d.FindNode(op.NodeID)
	if node == nil {
		return errors.NodeNotFound(op.NodeID)
	}
	if node.Locked && !op.Unlock {
		return errors.NodeLocked(op.NodeID)
	}

	to := d.Day(op.Day)
	if to == nil {
		return errors.Newf(errors.ErrCodeInvalidInput, "day %d does not exist", op.Day)
	}

	// Detach from the source day.
	for i, n := range from.Nodes {
		if n.ID == op.NodeID {
			from.Nodes = append(from.Nodes[:i], from.Nodes[i+1:]...)
			break
		}
	}

	if op.Start != "" {
		node.Start = op.Start
	}
	if op.End != "" {
		node.End = op.End
	}

	to.Nodes = insertAt(to.Nodes, node, op.Position)
	return nil
}

// insertAt places n at the given 0-based position, appending when the
// position is negative or past the end.
func insertAt(nodes []*Node, n *Node, position int) []*Node {
	if position < 0 || position >= len(nodes) {
		return append(nodes, n)
	}
	nodes = append(nodes, nil)
	copy(nodes[position+1:], nodes[position:])
	nodes[position] = n
	return nodes
}
