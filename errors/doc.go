// Package errors provides the structured error taxonomy for plankit. It
// defines error codes and categories that enable consistent handling across
// routing, mutation, and persistence layers.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (version conflicts, service timeouts)
//   - Permanent: Failures where retry will not help (locked nodes, unsupported tasks)
//   - Resource: Resource exhaustion issues (rate limits)
//   - Internal: Unexpected errors indicating bugs or system failures
//
// # Error Codes
//
// Each error carries a specific code identifying the type of failure:
//
//   - NODE_LOCKED: mutation targeted a locked node without an explicit unlock
//   - NODE_NOT_FOUND: mutation targeted a node missing from the document
//   - CAPABILITY_CONFLICT: a task type is already owned by another enabled agent
//   - UNSUPPORTED_TASK: an agent was invoked outside its declared task set
//   - REVISION_PERSIST: a revision record could not be saved, aborting the apply
//   - VERSION_CONFLICT: a concurrent commit changed the document version
//   - EXTERNAL_SERVICE: a classifier/generator/third-party call failed
//   - And more...
//
// # Usage
//
// Create a new error:
//
//	err := errors.NodeLocked(nodeID)
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "applying change set")
//
// Check if an error is retryable:
//
//	if errors.IsRetryable(err) {
//	    // retry logic
//	}
//
// # JSON Serialization
//
// All errors support JSON round-trips for transport to observers:
//
//	data, err := json.Marshal(planErr)
package errors
