// Package engine commits changes to plan documents.
//
// Every mutation is atomic: operations apply to a working copy, a
// revision record with a full snapshot is saved before the document
// commits, and the commit itself is an optimistic compare-and-swap on
// the backing store. A lost race deletes the write-ahead record,
// reloads, and retries, so concurrent applies on one document serialize
// with no lost updates.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/logging"
	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/revision"
	"github.com/vinayprograms/plankit/state"
)

// Config holds engine settings.
type Config struct {
	// MaxCommitRetries bounds CAS retry attempts per apply.
	MaxCommitRetries int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxCommitRetries: 5}
}

// Result is the outcome of a committed mutation.
type Result struct {
	// Document is the newly committed version.
	Document *plan.Document

	// Diff summarizes what changed against the prior version.
	Diff *plan.Diff

	// Revision is the record written for this version.
	Revision *revision.Record
}

// Engine applies change sets and rollbacks to documents.
type Engine struct {
	store     state.Store
	revisions revision.Store
	logger    *logging.Logger
	config    Config
}

// NewEngine creates an engine over the given stores.
func NewEngine(store state.Store, revisions revision.Store, logger *logging.Logger, cfg Config) *Engine {
	if cfg.MaxCommitRetries <= 0 {
		cfg.MaxCommitRetries = DefaultConfig().MaxCommitRetries
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Engine{
		store:     store,
		revisions: revisions,
		logger:    logger.WithComponent("engine"),
		config:    cfg,
	}
}

// documentKey builds the storage key for a document.
func documentKey(documentID string) string {
	return "documents." + documentID
}

// Create persists a new document at version 1.
func (e *Engine) Create(ctx context.Context, title string, days int) (*plan.Document, error) {
	doc := plan.NewDocument(title, days)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, planerr.Internal("encode document", planerr.WithCause(err))
	}
	if err := e.store.PutIf(documentKey(doc.ID), data, 0); err != nil {
		return nil, planerr.Wrap(err, "create document", planerr.WithDocumentID(doc.ID))
	}
	return doc, nil
}

// Get loads the current version of a document.
func (e *Engine) Get(ctx context.Context, documentID string) (*plan.Document, error) {
	doc, _, err := e.load(documentID)
	return doc, err
}

// load returns the document plus the store revision for CAS commits.
func (e *Engine) load(documentID string) (*plan.Document, uint64, error) {
	kv, err := e.store.GetKeyValue(documentKey(documentID))
	if err != nil {
		if err == state.ErrNotFound {
			return nil, 0, planerr.New(planerr.ErrCodeNotFound,
				fmt.Sprintf("document %s not found", documentID),
				planerr.WithDocumentID(documentID))
		}
		return nil, 0, planerr.Wrap(err, "load document", planerr.WithDocumentID(documentID))
	}

	doc := &plan.Document{}
	if err := json.Unmarshal(kv.Value, doc); err != nil {
		return nil, 0, planerr.Internal("decode document",
			planerr.WithCause(err), planerr.WithDocumentID(documentID))
	}
	return doc, kv.Revision, nil
}

// Apply atomically applies a change set to a document. On success the
// document is at version N+1 with a matching revision record; on any
// failure the document is unchanged.
func (e *Engine) Apply(ctx context.Context, documentID string, cs *plan.ChangeSet) (*Result, error) {
	if err := cs.Validate(); err != nil {
		return nil, planerr.InvalidInput(err.Error(), planerr.WithDocumentID(documentID))
	}

	return e.commit(ctx, documentID, func(current *plan.Document) (*plan.Document, *revision.Record, error) {
		working := current.Clone()
		for _, op := range cs.Operations {
			if err := working.ApplyOperation(op); err != nil {
				return nil, nil, planerr.Wrap(err, "apply operation",
					planerr.WithDocumentID(documentID), planerr.WithAgentID(cs.AgentID))
			}
		}

		diff := plan.DiffDocuments(current, working)
		working.Version = current.Version + 1
		working.UpdatedAt = time.Now()

		record := &revision.Record{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Version:    working.Version,
			Timestamp:  working.UpdatedAt,
			AgentID:    cs.AgentID,
			UserID:     cs.UserID,
			Reason:     cs.Reason,
			Changes:    cs.Operations,
			Diff:       diff,
			Snapshot:   working.Clone(),
		}
		return working, record, nil
	})
}

// History returns a document's revision records newest first. Records
// with a version beyond the committed document version are orphans left
// by a failed commit back-out and are filtered out.
func (e *Engine) History(ctx context.Context, documentID string) ([]*revision.Record, error) {
	doc, err := e.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	records, err := e.revisions.History(ctx, documentID)
	if err != nil {
		return nil, planerr.Wrap(err, "load history", planerr.WithDocumentID(documentID))
	}

	kept := make([]*revision.Record, 0, len(records))
	for _, record := range records {
		if record.Version > doc.Version {
			continue
		}
		kept = append(kept, record)
	}
	return kept, nil
}

// UpdateSection commits new content for a side-channel section. Section
// writes go through the same revision pipeline as node changes.
func (e *Engine) UpdateSection(ctx context.Context, documentID, section string, content json.RawMessage, agentID, userID string) (*Result, error) {
	if section == "" {
		return nil, planerr.InvalidInput("section name is required", planerr.WithDocumentID(documentID))
	}

	return e.commit(ctx, documentID, func(current *plan.Document) (*plan.Document, *revision.Record, error) {
		working := current.Clone()
		if working.Sections == nil {
			working.Sections = make(map[string]json.RawMessage)
		}
		working.Sections[section] = append(json.RawMessage(nil), content...)
		working.Version = current.Version + 1
		working.UpdatedAt = time.Now()

		record := &revision.Record{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Version:    working.Version,
			Timestamp:  working.UpdatedAt,
			AgentID:    agentID,
			UserID:     userID,
			Reason:     fmt.Sprintf("update section %s", section),
			Snapshot:   working.Clone(),
		}
		return working, record, nil
	})
}

// Rollback commits a past revision's snapshot as a new version. History
// is never rewritten; the rollback itself gets a revision record.
func (e *Engine) Rollback(ctx context.Context, documentID, revisionID, userID string) (*Result, error) {
	snapshot, err := e.revisions.Reconstruct(ctx, documentID, revisionID)
	if err != nil {
		if err == revision.ErrNotFound {
			return nil, planerr.New(planerr.ErrCodeNotFound,
				fmt.Sprintf("revision %s not found", revisionID),
				planerr.WithDocumentID(documentID))
		}
		return nil, planerr.Wrap(err, "reconstruct revision", planerr.WithDocumentID(documentID))
	}

	return e.commit(ctx, documentID, func(current *plan.Document) (*plan.Document, *revision.Record, error) {
		working := snapshot.Clone()
		working.ID = current.ID
		working.Version = current.Version + 1
		working.UpdatedAt = time.Now()

		record := &revision.Record{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Version:    working.Version,
			Timestamp:  working.UpdatedAt,
			UserID:     userID,
			Reason:     fmt.Sprintf("rollback to revision %s", revisionID),
			Diff:       plan.DiffDocuments(current, working),
			Snapshot:   working.Clone(),
		}
		return working, record, nil
	})
}

// commit runs the load-mutate-save cycle with write-ahead revision
// persistence and bounded CAS retries.
func (e *Engine) commit(ctx context.Context, documentID string, mutate func(current *plan.Document) (*plan.Document, *revision.Record, error)) (*Result, error) {
	start := time.Now()

	for attempt := 0; attempt < e.config.MaxCommitRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, planerr.Wrap(err, "commit canceled", planerr.WithDocumentID(documentID))
		}

		current, storeRev, err := e.load(documentID)
		if err != nil {
			return nil, err
		}

		working, record, err := mutate(current)
		if err != nil {
			return nil, err
		}

		// The revision record goes down before the document: a commit
		// without history is worse than history without a commit.
		if err := e.revisions.Save(ctx, record); err != nil {
			return nil, planerr.RevisionPersist(documentID, err)
		}

		data, err := json.Marshal(working)
		if err != nil {
			e.backOut(ctx, documentID, record.ID)
			return nil, planerr.Internal("encode document",
				planerr.WithCause(err), planerr.WithDocumentID(documentID))
		}

		err = e.store.PutIf(documentKey(documentID), data, storeRev)
		if err == nil {
			e.logger.ApplyCommitted(documentID, working.Version, len(record.Changes), time.Since(start))
			return &Result{Document: working, Diff: record.Diff, Revision: record}, nil
		}

		// Lost the race or store failure: back out the write-ahead record.
		e.backOut(ctx, documentID, record.ID)

		if err != state.ErrRevisionMismatch {
			return nil, planerr.Wrap(err, "commit document", planerr.WithDocumentID(documentID))
		}
		e.logger.ApplyConflict(documentID, attempt+1)
	}

	return nil, planerr.VersionConflict(documentID)
}

// backOut removes a write-ahead record after a failed commit. A failed
// delete leaves an orphan record, so it is surfaced in the log even
// though the commit outcome is already decided.
func (e *Engine) backOut(ctx context.Context, documentID, recordID string) {
	if err := e.revisions.Delete(ctx, documentID, recordID); err != nil {
		e.logger.Warn("revision_backout_failed", map[string]interface{}{
			"document": documentID,
			"revision": recordID,
			"error":    err.Error(),
		})
	}
}
