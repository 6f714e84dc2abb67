package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlanError is the interface for all structured errors in plankit.
// It extends the standard error interface with the context needed for
// routing fallback and retry decisions.
type PlanError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// Metadata returns additional context as key-value pairs.
	Metadata() map[string]string

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of PlanError.
type Error struct {
	code       ErrorCode
	category   ErrorCategory
	message    string
	cause      error
	metadata   map[string]string
	retryable  *bool // nil means use default based on category
	timestamp  time.Time
	agentID    string // source agent, if applicable
	documentID string // related document, if applicable
}

// Ensure Error implements PlanError and json.Marshaler/Unmarshaler.
var (
	_ PlanError        = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Metadata returns the error metadata.
func (e *Error) Metadata() map[string]string {
	if e.metadata == nil {
		return make(map[string]string)
	}
	// Return a copy to prevent modification
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// AgentID returns the source agent ID, if set.
func (e *Error) AgentID() string {
	return e.agentID
}

// DocumentID returns the related document ID, if set.
func (e *Error) DocumentID() string {
	return e.documentID
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code       ErrorCode         `json:"code"`
	Category   ErrorCategory     `json:"category"`
	Message    string            `json:"message"`
	Cause      string            `json:"cause,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Retryable  bool              `json:"retryable"`
	Timestamp  string            `json:"timestamp,omitempty"`
	AgentID    string            `json:"agent_id,omitempty"`
	DocumentID string            `json:"document_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:       e.code,
		Category:   e.category,
		Message:    e.message,
		Metadata:   e.metadata,
		Retryable:  e.Retryable(),
		AgentID:    e.agentID,
		DocumentID: e.documentID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.metadata = j.Metadata
	e.agentID = j.AgentID
	e.documentID = j.DocumentID
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithAgentID sets the source agent ID.
func WithAgentID(id string) Option {
	return func(e *Error) {
		e.agentID = id
	}
}

// WithDocumentID sets the related document ID.
func WithDocumentID(id string) Option {
	return func(e *Error) {
		e.documentID = id
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// NodeLocked creates a locked-node error for the given node ID.
func NodeLocked(nodeID string, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("node_id", nodeID)}, opts...)
	return New(ErrCodeNodeLocked, fmt.Sprintf("node %s is locked", nodeID), opts...)
}

// NodeNotFound creates a missing-node error for the given node ID.
func NodeNotFound(nodeID string, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("node_id", nodeID)}, opts...)
	return New(ErrCodeNodeNotFound, fmt.Sprintf("node %s not found", nodeID), opts...)
}

// CapabilityConflict creates a registration conflict error.
func CapabilityConflict(taskType, ownerID string, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("task_type", taskType), WithAgentID(ownerID)}, opts...)
	return New(ErrCodeCapabilityConflict,
		fmt.Sprintf("task type %q already registered to agent %s", taskType, ownerID), opts...)
}

// UnsupportedTask creates a misrouted-invocation error.
func UnsupportedTask(agentID, taskType string, opts ...Option) *Error {
	opts = append([]Option{WithAgentID(agentID), WithMetadata("task_type", taskType)}, opts...)
	return New(ErrCodeUnsupportedTask,
		fmt.Sprintf("agent %s does not handle task type %q", agentID, taskType), opts...)
}

// ExternalService wraps a failure from the classifier, generator, or a
// third-party domain service.
func ExternalService(service string, cause error, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("service", service), WithCause(cause)}, opts...)
	return New(ErrCodeExternalService, fmt.Sprintf("%s call failed", service), opts...)
}

// RevisionPersist creates an error aborting an apply because the revision
// record could not be saved.
func RevisionPersist(documentID string, cause error, opts ...Option) *Error {
	opts = append([]Option{WithDocumentID(documentID), WithCause(cause)}, opts...)
	return New(ErrCodeRevisionPersist, "revision record could not be persisted", opts...)
}

// VersionConflict creates a concurrent-commit error.
func VersionConflict(documentID string, opts ...Option) *Error {
	opts = append([]Option{WithDocumentID(documentID)}, opts...)
	return New(ErrCodeVersionConflict, "document version changed during apply", opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}
