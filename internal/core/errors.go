package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatPrecondition ErrorCategory = "precondition_failed"  // Missing minimum viable capability
	ErrCatTransient    ErrorCategory = "transient"            // Network/timeout, retried per policy
	ErrCatValidation   ErrorCategory = "validation"           // Malformed stage input, never retried
	ErrCatSynthesis    ErrorCategory = "synthesis_failure"    // Caught internally, triggers fallback report
	ErrCatDelivery     ErrorCategory = "delivery_unreachable" // Caught internally, triggers orphan persistence
	ErrCatCancelled    ErrorCategory = "cancelled"            // External cancel signal
	ErrCatBudget       ErrorCategory = "budget"               // Time budget exhausted
	ErrCatState        ErrorCategory = "state"                // State corruption/conflict
	ErrCatInternal     ErrorCategory = "internal"             // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrPrecondition creates a precondition error. It is fatal: the run must
// abort before any stage executes.
func ErrPrecondition(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatPrecondition,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrTransient creates a retryable transient error.
func ErrTransient(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTransient,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a stage timeout error. Timeouts are transient:
// the retry policy may re-invoke the worker.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTransient,
		Code:      CodeStageTimeout,
		Message:   message,
		Retryable: true,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrSynthesis creates a synthesis failure error.
func ErrSynthesis(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatSynthesis,
		Code:      "SYNTHESIS_FAILED",
		Message:   message,
		Retryable: false,
	}
}

// ErrDeliveryUnreachable creates a delivery error for an unreachable session.
func ErrDeliveryUnreachable(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatDelivery,
		Code:      "SESSION_UNREACHABLE",
		Message:   message,
		Retryable: false,
	}
}

// ErrCancelled creates a cancellation error.
func ErrCancelled(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCancelled,
		Code:      "RUN_CANCELLED",
		Message:   message,
		Retryable: false,
	}
}

// ErrBudgetExhausted creates an error when the run's time budget is spent.
func ErrBudgetExhausted(stage Stage, remaining string) *DomainError {
	return &DomainError{
		Category:  ErrCatBudget,
		Code:      "BUDGET_EXHAUSTED",
		Message:   fmt.Sprintf("time budget exhausted before stage %s", stage),
		Retryable: false,
		Details: map[string]interface{}{
			"stage":     string(stage),
			"remaining": remaining,
		},
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeStageTimeout       = "STAGE_TIMEOUT"
	CodeNetworkFailure     = "NETWORK_FAILURE"
	CodeWorkerUnavailable  = "WORKER_UNAVAILABLE"
	CodeCapabilityDown     = "CAPABILITY_UNAVAILABLE"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidPlan        = "INVALID_PLAN"
	CodeResultNotFound     = "RESULT_NOT_FOUND"
	CodeLedgerFinalized    = "LEDGER_FINALIZED"
	CodeContextOwnership   = "CONTEXT_WRITE_DENIED"
	CodeEmptyURL           = "EMPTY_URL"
	CodeURLTooLong         = "URL_TOO_LONG"
	CodeInvalidTier        = "INVALID_TIER"
	CodeSinkUnavailable    = "SINK_UNAVAILABLE"
	CodeStateCorrupted     = "STATE_CORRUPTED"
	CodeMalformedOutput    = "MALFORMED_OUTPUT"
	CodeRetryExhausted     = "RETRY_EXHAUSTED"
	CodeMissingCapability  = "MINIMUM_VIABLE_CAPABILITY_DOWN"
	CodeMinimumViable      = "MINIMUM_VIABLE_STAGE_FAILED"
	CodeDuplicateStage     = "DUPLICATE_STAGE"
	CodeDuplicateWorkflow  = "DUPLICATE_WORKFLOW"
	CodeUnknownStage       = "UNKNOWN_STAGE"
	CodeInvalidTimeout     = "INVALID_TIMEOUT"
	CodeTenantRequired     = "TENANT_REQUIRED"
	CodeSessionUnreachable = "SESSION_UNREACHABLE"
)

// MaxURLLength is the maximum accepted content URL length.
const MaxURLLength = 4096
