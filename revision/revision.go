// Package revision stores the append-only change history of plan
// documents.
//
// Every committed document version is preceded by exactly one revision
// record carrying the change descriptors and a full snapshot, so history
// is always reconstructable and never rewritten.
package revision

import (
	"context"
	"errors"
	"time"

	"github.com/vinayprograms/plankit/plan"
)

// Common errors.
var (
	ErrNotFound  = errors.New("revision not found")
	ErrClosed    = errors.New("revision store closed")
	ErrInvalidID = errors.New("invalid revision record")
)

// Record captures one committed mutation of a document.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// DocumentID is the mutated document.
	DocumentID string `json:"document_id"`

	// Version is the document version this record produced.
	Version int `json:"version"`

	// Timestamp is when the mutation committed.
	Timestamp time.Time `json:"timestamp"`

	// AgentID and UserID attribute the change.
	AgentID string `json:"agent_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`

	// Reason is the human-readable motivation for the change.
	Reason string `json:"reason,omitempty"`

	// Changes are the operations that produced this version.
	Changes []plan.ChangeOperation `json:"changes,omitempty"`

	// Diff summarizes the node-level effect of the changes.
	Diff *plan.Diff `json:"diff,omitempty"`

	// Snapshot is the full document state at this version.
	Snapshot *plan.Document `json:"snapshot"`
}

// Validate checks the record for required fields.
func (r *Record) Validate() error {
	if r.ID == "" || r.DocumentID == "" || r.Version < 1 || r.Snapshot == nil {
		return ErrInvalidID
	}
	return nil
}

// Store persists revision records.
type Store interface {
	// Save appends a record. Records are immutable once saved.
	Save(ctx context.Context, record *Record) error

	// History returns a document's records newest first.
	History(ctx context.Context, documentID string) ([]*Record, error)

	// Get retrieves one record by document and revision ID.
	Get(ctx context.Context, documentID, revisionID string) (*Record, error)

	// Reconstruct returns the exact document state a revision captured.
	Reconstruct(ctx context.Context, documentID, revisionID string) (*plan.Document, error)

	// Delete removes a record. It exists for backing out a write-ahead
	// record after a failed commit, not for editing history.
	Delete(ctx context.Context, documentID, revisionID string) error

	// Close shuts down the store.
	Close() error
}
