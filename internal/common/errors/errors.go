// Package errors provides standardized error handling for the dialogue
// service and its downstream workflow clients.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input validation failures: recovered locally by re-prompting the user.
const (
	ErrCodeInvalidTicketNumber  ErrorCode = "INVALID_TICKET_NUMBER"
	ErrCodeDescriptionTooShort  ErrorCode = "DESCRIPTION_TOO_SHORT"
	ErrCodeSoftwareNameTooShort ErrorCode = "SOFTWARE_NAME_TOO_SHORT"
)

// Downstream client failures: not retried by the engine, surfaced as a
// localized apology with the conversation state cleared.
const (
	ErrCodeTicketLookupFailed    ErrorCode = "TICKET_LOOKUP_FAILED"
	ErrCodeTicketNotFound        ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeTicketCreateFailed    ErrorCode = "TICKET_CREATE_FAILED"
	ErrCodeKnowledgeSearchFailed ErrorCode = "KNOWLEDGE_SEARCH_FAILED"
	ErrCodeAnswerGenFailed       ErrorCode = "ANSWER_GENERATION_FAILED"
	ErrCodeSoftwareRequestFailed ErrorCode = "SOFTWARE_REQUEST_FAILED"
	ErrCodeDownstreamTimeout     ErrorCode = "DOWNSTREAM_TIMEOUT"
)

// Resolver and infrastructure failures.
const (
	ErrCodeResolverUnavailable ErrorCode = "RESOLVER_UNAVAILABLE"
	ErrCodeStateStoreFailed    ErrorCode = "STATE_STORE_FAILED"
	ErrCodeAuditWriteFailed    ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeNotifyFailed        ErrorCode = "NOTIFY_FAILED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTicketNotFoundError marks a lookup for a ticket id that does not exist.
func NewTicketNotFoundError(ticketID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTicketNotFound,
		Message:   "Ticket not found",
		Details:   ticketID,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDownstreamError wraps any ticketing/knowledge/software client failure.
func NewDownstreamError(code ErrorCode, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   "Downstream client call failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError marks a downstream call that exceeded its deadline.
// At the dialogue layer this is handled like any other failure.
func NewTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDownstreamTimeout,
		Message:   "Downstream call timed out",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// CodeOf extracts the error code, normalizing unknown errors to INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether the error is a ticket-not-found outcome,
// which renders a not-found message rather than an apology.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeTicketNotFound
}
