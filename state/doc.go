// Package state provides revisioned key-value storage used as the
// persistence substrate for documents and revision records.
//
// Every key carries a monotonic per-key revision. PutIf performs a
// compare-and-swap against that revision, which is what lets the change
// engine serialize commits per document: two concurrent applies both read
// revision R, the first commit succeeds, the second gets
// ErrRevisionMismatch and retries against the fresh state.
//
// The in-memory implementation is complete and safe for concurrent use.
// Watch streams change notifications for keys matching a prefix pattern.
package state
