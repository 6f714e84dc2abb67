package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: version conflicts, external service timeouts.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: locked nodes, missing nodes, misrouted tasks.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates resource exhaustion or quota issues.
	// Examples: rate limiting by an external provider.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors, bugs, or system failures.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for common failure scenarios.
const (
	// Transient errors
	ErrCodeTimeout         ErrorCode = "TIMEOUT"          // Operation timed out
	ErrCodeUnavailable     ErrorCode = "UNAVAILABLE"      // Service temporarily unavailable
	ErrCodeVersionConflict ErrorCode = "VERSION_CONFLICT" // Concurrent commit on the same document
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE" // Classifier/generator/third-party failure

	// Permanent errors
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"           // Resource does not exist
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"       // Malformed or invalid input
	ErrCodeCanceled           ErrorCode = "CANCELED"            // Operation was canceled
	ErrCodeNodeNotFound       ErrorCode = "NODE_NOT_FOUND"      // Target node missing from the document
	ErrCodeNodeLocked         ErrorCode = "NODE_LOCKED"         // Node is locked and no unlock was requested
	ErrCodeUnsupportedTask    ErrorCode = "UNSUPPORTED_TASK"    // Agent invoked outside its declared task set
	ErrCodeCapabilityConflict ErrorCode = "CAPABILITY_CONFLICT" // Task type already owned by another enabled agent
	ErrCodeNoSuitableAgent    ErrorCode = "NO_SUITABLE_AGENT"   // No enabled agent declares the task type

	// Resource errors
	ErrCodeRateLimit ErrorCode = "RATE_LIMITED" // Rate limit exceeded

	// Internal errors
	ErrCodeInternal        ErrorCode = "INTERNAL"         // Unexpected internal error
	ErrCodeRevisionPersist ErrorCode = "REVISION_PERSIST" // Revision record could not be saved
	ErrCodePanic           ErrorCode = "PANIC"            // Recovered from panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeVersionConflict, ErrCodeExternalService:
		return CategoryTransient

	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeCanceled,
		ErrCodeNodeNotFound, ErrCodeNodeLocked, ErrCodeUnsupportedTask,
		ErrCodeCapabilityConflict, ErrCodeNoSuitableAgent:
		return CategoryPermanent

	case ErrCodeRateLimit:
		return CategoryResource

	case ErrCodeInternal, ErrCodeRevisionPersist, ErrCodePanic:
		return CategoryInternal

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:            "operation timed out",
	ErrCodeUnavailable:        "service temporarily unavailable",
	ErrCodeVersionConflict:    "document version changed during apply",
	ErrCodeExternalService:    "external service call failed",
	ErrCodeNotFound:           "resource not found",
	ErrCodeInvalidInput:       "invalid input provided",
	ErrCodeCanceled:           "operation canceled",
	ErrCodeNodeNotFound:       "node not found in document",
	ErrCodeNodeLocked:         "node is locked",
	ErrCodeUnsupportedTask:    "task type not supported by agent",
	ErrCodeCapabilityConflict: "task type already registered to another agent",
	ErrCodeNoSuitableAgent:    "no suitable agent for task type",
	ErrCodeRateLimit:          "rate limit exceeded",
	ErrCodeInternal:           "internal error",
	ErrCodeRevisionPersist:    "revision record could not be persisted",
	ErrCodePanic:              "recovered from panic",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
