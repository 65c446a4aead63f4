// Package errors provides standardized error handling for the matching pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Worker input
	ErrCodeParseError       ErrorCode = "PARSE_ERROR"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Candidate repository
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"

	// Corpus / retrieval
	ErrCodeCorpusNotReady    ErrorCode = "CORPUS_NOT_READY"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	// Reasoning service
	ErrCodeReasoningTimeout ErrorCode = "REASONING_TIMEOUT"
	ErrCodeReasoningFailed  ErrorCode = "REASONING_FAILED"
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
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ErrorMessage renders the message sent to the workflow engine, with the
// details appended when present.
func (e *BPMNError) ErrorMessage() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// ConvertToBPMNError maps a StandardError onto the workflow error shape.
func ConvertToBPMNError(e *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(e.Code),
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewParseError creates a non-retryable job-variable parse error.
func NewParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable profile validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Requester profile failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCorpusNotReadyError indicates the program corpus index never became searchable.
func NewCorpusNotReadyError(indexName string, err error) *StandardError {
	details := fmt.Sprintf("indexName: %s", indexName)
	if err != nil {
		details += ", error: " + err.Error()
	}
	return &StandardError{
		Code:      ErrCodeCorpusNotReady,
		Message:   "Program corpus index is not ready",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
