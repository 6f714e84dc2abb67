package plan

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is the root aggregate: a versioned multi-day plan.
type Document struct {
	// ID uniquely identifies the document.
	ID string `json:"id"`

	// Title is a human-readable name for the plan.
	Title string `json:"title,omitempty"`

	// Version is monotonic. It increases by exactly 1 per committed
	// mutation and starts at 1 for a freshly created document.
	Version int `json:"version"`

	// Days are ordered by contiguous 1-based day number.
	Days []*Day `json:"days"`

	// Sections holds per-task-type side-channel data keyed by task type
	// (e.g. "book" stores confirmation payloads). Values are opaque JSON.
	Sections map[string]json.RawMessage `json:"sections,omitempty"`

	// Settings holds document-level preferences.
	Settings map[string]string `json:"settings,omitempty"`

	// CreatedAt is when the document was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the document was last committed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Day owns the ordered nodes for one 1-based day number.
type Day struct {
	// Number is the 1-based position of the day. Days are contiguous.
	Number int `json:"number"`

	// Title is an optional day heading.
	Title string `json:"title,omitempty"`

	// Nodes are the ordered plan items for this day.
	Nodes []*Node `json:"nodes"`
}

// Node is the smallest addressable plan item.
type Node struct {
	// ID is assigned at creation and never reused.
	ID string `json:"id"`

	// Type tags the kind of item (e.g. "activity", "meal", "transfer",
	// "booking"). The set is open; agents interpret it.
	Type string `json:"type"`

	// Title is the display name of the item.
	Title string `json:"title"`

	// Start and End bound the timing window in HH:MM, empty when untimed.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Cost is the estimated or confirmed cost of the item.
	Cost float64 `json:"cost,omitempty"`

	// Notes holds free-form details.
	Notes string `json:"notes,omitempty"`

	// Locked forbids mutation of this node unless the operation carries
	// an explicit unlock.
	Locked bool `json:"locked,omitempty"`
}

// NewDocument creates a document at version 1 with the given number of
// empty days.
func NewDocument(title string, days int) *Document {
	now := time.Now()
	d := &Document{
		ID:        uuid.NewString(),
		Title:     title,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := 1; i <= days; i++ {
		d.Days = append(d.Days, &Day{Number: i})
	}
	return d
}

// NewNode creates a node with a fresh ID.
func NewNode(nodeType, title string) *Node {
	return &Node{
		ID:    uuid.NewString(),
		Type:  nodeType,
		Title: title,
	}
}

// Clone returns a copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	return &c
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	clone := &Document{
		ID:        d.ID,
		Title:     d.Title,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	if d.Days != nil {
		clone.Days = make([]*Day, len(d.Days))
		for i, day := range d.Days {
			clone.Days[i] = day.Clone()
		}
	}

	if d.Sections != nil {
		clone.Sections = make(map[string]json.RawMessage, len(d.Sections))
		for k, v := range d.Sections {
			raw := make(json.RawMessage, len(v))
			copy(raw, v)
			clone.Sections[k] = raw
		}
	}

	if d.Settings != nil {
		clone.Settings = make(map[string]string, len(d.Settings))
		for k, v := range d.Settings {
			clone.Settings[k] = v
		}
	}

	return clone
}

// Clone returns a deep copy of the day.
func (day *Day) Clone() *Day {
	clone := &Day{
		Number: day.Number,
		Title:  day.Title,
	}
	if day.Nodes != nil {
		clone.Nodes = make([]*Node, len(day.Nodes))
		for i, n := range day.Nodes {
			c := *n
			clone.Nodes[i] = &c
		}
	}
	return clone
}

// TotalCost returns the aggregate cost of all nodes in the day.
func (day *Day) TotalCost() float64 {
	var total float64
	for _, n := range day.Nodes {
		total += n.Cost
	}
	return total
}

// TotalCost returns the aggregate cost across all days.
func (d *Document) TotalCost() float64 {
	var total float64
	for _, day := range d.Days {
		total += day.TotalCost()
	}
	return total
}

// Day returns the day with the given 1-based number, or nil.
func (d *Document) Day(number int) *Day {
	for _, day := range d.Days {
		if day.Number == number {
			return day
		}
	}
	return nil
}

// FindNode returns the node and its owning day, or (nil, nil).
func (d *Document) FindNode(nodeID string) (*Node, *Day) {
	for _, day := range d.Days {
		for _, n := range day.Nodes {
			if n.ID == nodeID {
				return n, day
			}
		}
	}
	return nil, nil
}

// NodeCount returns the number of nodes across all days.
func (d *Document) NodeCount() int {
	count := 0
	for _, day := range d.Days {
		count += len(day.Nodes)
	}
	return count
}
