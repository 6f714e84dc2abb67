package revision

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/state"
)

// StateStore persists revision records in a state.Store under keys
// "revisions.<documentID>.<version>.<revisionID>". The version component
// is zero-padded so lexical key order matches version order.
type StateStore struct {
	store state.Store
}

// NewStateStore creates a revision store backed by the given state store.
func NewStateStore(store state.Store) *StateStore {
	return &StateStore{store: store}
}

// recordKey builds the storage key for a record.
func recordKey(documentID string, version int, revisionID string) string {
	return fmt.Sprintf("revisions.%s.%010d.%s", documentID, version, revisionID)
}

// Save implements Store.
func (s *StateStore) Save(ctx context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	key := recordKey(record.DocumentID, record.Version, record.ID)
	if err := s.store.Put(key, data); err != nil {
		if err == state.ErrClosed {
			return ErrClosed
		}
		return err
	}
	return nil
}

// History implements Store, returning records newest first.
func (s *StateStore) History(ctx context.Context, documentID string) ([]*Record, error) {
	keys, err := s.store.Keys("revisions." + documentID + ".*")
	if err != nil {
		if err == state.ErrClosed {
			return nil, ErrClosed
		}
		return nil, err
	}

	// Zero-padded version in the key makes lexical order version order.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(key)
		if err != nil {
			if err == state.ErrNotFound {
				continue
			}
			return nil, err
		}
		record := &Record{}
		if err := json.Unmarshal(data, record); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", key, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Get implements Store.
func (s *StateStore) Get(ctx context.Context, documentID, revisionID string) (*Record, error) {
	record, _, err := s.find(documentID, revisionID)
	return record, err
}

// Reconstruct implements Store.
func (s *StateStore) Reconstruct(ctx context.Context, documentID, revisionID string) (*plan.Document, error) {
	record, _, err := s.find(documentID, revisionID)
	if err != nil {
		return nil, err
	}
	return record.Snapshot.Clone(), nil
}

// Delete implements Store.
func (s *StateStore) Delete(ctx context.Context, documentID, revisionID string) error {
	_, key, err := s.find(documentID, revisionID)
	if err != nil {
		return err
	}
	return s.store.Delete(key)
}

// Close implements Store. The underlying state store is shared and left
// open for its owner to close.
func (s *StateStore) Close() error {
	return nil
}

// find locates a record by scanning the document's revision keys.
func (s *StateStore) find(documentID, revisionID string) (*Record, string, error) {
	keys, err := s.store.Keys("revisions." + documentID + ".*")
	if err != nil {
		if err == state.ErrClosed {
			return nil, "", ErrClosed
		}
		return nil, "", err
	}

	for _, key := range keys {
		data, err := s.store.Get(key)
		if err != nil {
			continue
		}
		record := &Record{}
		if err := json.Unmarshal(data, record); err != nil {
			continue
		}
		if record.ID == revisionID {
			return record, key, nil
		}
	}
	return nil, "", ErrNotFound
}
