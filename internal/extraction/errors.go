package extraction

import "fmt"

// ErrorCode identifies a pipeline failure kind and its propagation policy.
type ErrorCode string

const (
	// Run-level failures surfaced to the caller.
	ErrMalformedSource         ErrorCode = "MALFORMED_SOURCE"
	ErrNoTextExtracted         ErrorCode = "NO_TEXT_EXTRACTED"
	ErrNoPromptConfigured      ErrorCode = "NO_PROMPT_CONFIGURED"
	ErrNoTransactionsExtracted ErrorCode = "NO_TRANSACTIONS_EXTRACTED"

	// Page-level failures: the page is skipped, the run continues.
	ErrLlmResponseUnparseable  ErrorCode = "LLM_RESPONSE_UNPARSEABLE"
	ErrLlmResponseShapeInvalid ErrorCode = "LLM_RESPONSE_SHAPE_INVALID"
	ErrLlmTransport            ErrorCode = "LLM_TRANSPORT_ERROR"

	// Logged only; the run still emits its artifact.
	ErrRunPersistenceFailed ErrorCode = "RUN_PERSISTENCE_FAILED"

	ErrArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"
)

// PipelineError is a structured error for ingestion failures.
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Page      int // 1-based page number for page-local errors, 0 otherwise
	Retryable bool
	Cause     error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("page %d: %s", e.Page, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// IsPageLocal reports whether the error is recoverable by skipping the page
// it occurred on.
func (e *PipelineError) IsPageLocal() bool {
	switch e.Code {
	case ErrLlmResponseUnparseable, ErrLlmResponseShapeInvalid, ErrLlmTransport:
		return true
	}
	return false
}
