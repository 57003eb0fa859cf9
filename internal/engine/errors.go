package engine

import (
	"errors"
	"fmt"
)

// Code categorizes operation errors.
type Code string

const (
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeManagerPaused          Code = "MANAGER_PAUSED"
	CodeAlreadyInitialized     Code = "ALREADY_INITIALIZED"
	CodeArityMismatch          Code = "ARITY_MISMATCH"
	CodeCapacityExceeded       Code = "CAPACITY_EXCEEDED"
	CodeInvalidState           Code = "INVALID_STATE"
	CodeIncompleteBundle       Code = "INCOMPLETE_BUNDLE"
	CodeComputeBudgetExceeded  Code = "COMPUTE_BUDGET_EXCEEDED"
	CodeOwnershipMismatch      Code = "OWNERSHIP_MISMATCH"
	CodeDeserializationFailure Code = "DESERIALIZATION_FAILURE"

	// CodeExecutionFailed carries a sub-instruction failure out of
	// ExecuteBundle. Unlike every other code, the operation HAS mutated
	// state: the bundle is persisted as Failed. See the package doc.
	CodeExecutionFailed Code = "EXECUTION_FAILED"
)

// OpError is a validation or execution failure with a stable code.
//
// For every code except CodeExecutionFailed, an OpError means nothing was
// persisted by the failed operation.
type OpError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Details contains additional context (counts, limits, identifiers).
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OpError) Unwrap() error { return e.Err }

// CodeOf returns the error's code, or "" if err is not an OpError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsCode reports whether err is an OpError with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func opErr(code Code, format string, args ...any) *OpError {
	return &OpError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapOpErr(code Code, err error, format string, args ...any) *OpError {
	return &OpError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
