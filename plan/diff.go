package plan

// Diff records which nodes changed between two document versions, keyed by
// 1-based day number. A node that moved across days appears as removed from
// the source day and added to the destination day.
type Diff struct {
	// Added maps day number to IDs of nodes new in that day.
	Added map[int][]string `json:"added,omitempty"`

	// Removed maps day number to IDs of nodes no longer in that day.
	Removed map[int][]string `json:"removed,omitempty"`

	// Modified maps day number to IDs of nodes whose fields changed.
	Modified map[int][]string `json:"modified,omitempty"`
}

// Empty returns true if the diff records no changes.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// ChangedNodeIDs returns the IDs of every node the diff touches.
func (d *Diff) ChangedNodeIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	collect := func(m map[int][]string) {
		for _, dayIDs := range m {
			for _, id := range dayIDs {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	collect(d.Added)
	collect(d.Removed)
	collect(d.Modified)
	return ids
}

// DiffDocuments computes the structural diff from old to new.
func DiffDocuments(old, new *Document) *Diff {
	diff := &Diff{
		Added:    make(map[int][]string),
		Removed:  make(map[int][]string),
		Modified: make(map[int][]string),
	}

	oldIndex := indexNodes(old)
	newIndex := indexNodes(new)

	for id, loc := range newIndex {
		prev, existed := oldIndex[id]
		switch {
		case !existed:
			diff.Added[loc.day] = append(diff.Added[loc.day], id)
		case prev.day != loc.day:
			diff.Removed[prev.day] = append(diff.Removed[prev.day], id)
			diff.Added[loc.day] = append(diff.Added[loc.day], id)
		case !nodesEqual(prev.node, loc.node):
			diff.Modified[loc.day] = append(diff.Modified[loc.day], id)
		}
	}

	for id, prev := range oldIndex {
		if _, exists := newIndex[id]; !exists {
			diff.Removed[prev.day] = append(diff.Removed[prev.day], id)
		}
	}

	// Drop empty maps so Empty() and JSON output stay clean.
	if len(diff.Added) == 0 {
		diff.Added = nil
	}
	if len(diff.Removed) == 0 {
		diff.Removed = nil
	}
	if len(diff.Modified) == 0 {
		diff.Modified = nil
	}

	return diff
}

type nodeLocation struct {
	day  int
	node *Node
}

func indexNodes(d *Document) map[string]nodeLocation {
	index := make(map[string]nodeLocation)
	if d == nil {
		return index
	}
	for _, day := range d.Days {
		for _, n := range day.Nodes {
			index[n.ID] = nodeLocation{day: day.Number, node: n}
		}
	}
	return index
}

func nodesEqual(a, b *Node) bool {
	return a.Type == b.Type &&
		a.Title == b.Title &&
		a.Start == b.Start &&
		a.End == b.End &&
		a.Cost == b.Cost &&
		a.Notes == b.Notes &&
		a.Locked == b.Locked
}
