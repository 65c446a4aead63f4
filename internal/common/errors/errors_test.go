// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewValidationFailedError("companyInfo.name: String length must be greater than or equal to 1")
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "VALIDATION_FAILED", bpmnErr.Code)
	assert.Equal(t, stdErr.Message, bpmnErr.Message)
	assert.Equal(t, stdErr.Details, bpmnErr.Details)
	assert.False(t, bpmnErr.Retryable)
}

func TestBPMNErrorMessage(t *testing.T) {
	withDetails := ConvertToBPMNError(NewParseError(errors.New("unexpected end of JSON input")))
	assert.Equal(t, "Failed to parse job variables: unexpected end of JSON input", withDetails.ErrorMessage())

	bare := &BPMNError{Code: "PARSE_ERROR", Message: "Failed to parse job variables"}
	assert.Equal(t, "Failed to parse job variables", bare.ErrorMessage())
}

func TestConstructors(t *testing.T) {
	parse := NewParseError(errors.New("bad input"))
	assert.Equal(t, ErrCodeParseError, parse.Code)
	assert.False(t, parse.Retryable)

	corpus := NewCorpusNotReadyError("support-programs", errors.New("connection refused"))
	assert.Equal(t, ErrCodeCorpusNotReady, corpus.Code)
	assert.True(t, corpus.Retryable)
	assert.Contains(t, corpus.Details, "support-programs")
	assert.Contains(t, corpus.Details, "connection refused")
}
