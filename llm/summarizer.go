package llm

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/plankit/plan"
)

// DefaultSummaryBudget is the default character budget for summaries.
const DefaultSummaryBudget = 8000

// Summarize renders a document as compact text for prompting. Every node
// line carries its stable ID so the model can reference nodes in change
// operations. When the rendering exceeds maxBudget characters, each
// day's node list is truncated evenly rather than dropping whole days.
func Summarize(doc *plan.Document, maxBudget int) string {
	if doc == nil {
		return ""
	}
	if maxBudget <= 0 {
		maxBudget = DefaultSummaryBudget
	}

	full := renderDocument(doc, -1)
	if len(full) <= maxBudget {
		return full
	}

	// Shrink the per-day node limit until the rendering fits.
	maxNodes := 0
	for _, day := range doc.Days {
		if len(day.Nodes) > maxNodes {
			maxNodes = len(day.Nodes)
		}
	}
	for limit := maxNodes - 1; limit >= 1; limit-- {
		out := renderDocument(doc, limit)
		if len(out) <= maxBudget {
			return out
		}
	}
	return renderDocument(doc, 1)
}

// renderDocument writes the header plus each day. nodeLimit < 0 means
// no truncation.
func renderDocument(doc *plan.Document, nodeLimit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan %q (version %d, %d days, total cost %.2f)\n",
		doc.Title, doc.Version, len(doc.Days), doc.TotalCost())

	for _, day := range doc.Days {
		fmt.Fprintf(&b, "Day %d", day.Number)
		if day.Title != "" {
			fmt.Fprintf(&b, " - %s", day.Title)
		}
		fmt.Fprintf(&b, " (%d items)\n", len(day.Nodes))

		shown := len(day.Nodes)
		if nodeLimit >= 0 && shown > nodeLimit {
			shown = nodeLimit
		}
		for _, node := range day.Nodes[:shown] {
			fmt.Fprintf(&b, "  [%s] %s: %s", node.ID, node.Type, node.Title)
			if node.Start != "" {
				fmt.Fprintf(&b, " %s-%s", node.Start, node.End)
			}
			if node.Cost > 0 {
				fmt.Fprintf(&b, " (%.2f)", node.Cost)
			}
			if node.Locked {
				b.WriteString(" [locked]")
			}
			b.WriteString("\n")
		}
		if hidden := len(day.Nodes) - shown; hidden > 0 {
			fmt.Fprintf(&b, "  ... %d more items\n", hidden)
		}
	}

	return b.String()
}
