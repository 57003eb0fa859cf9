package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ledgerkit/bundler/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation rejected by the engine (guard, capacity, budget, ...)
	ExitCommandError = 2 // Command error (bad flags, unreadable database, malformed input)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Engine rejections map to
// ExitFailure; anything else without an explicit code is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var opErr *engine.OpError
	if errors.As(err, &opErr) {
		return ExitFailure
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	OpToken string    `json:"op_token,omitempty"` // operation correlation token
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string            `json:"code"`              // stable engine code, e.g. "CAPACITY_EXCEEDED"
	Message string            `json:"message"`           // human-readable message
	Details map[string]string `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. In text mode
// data is printed as-is, so callers pass a pre-rendered string.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// OperationError renders an engine rejection in the configured format and
// returns an ExitError carrying the failure exit code.
func (f *OutputFormatter) OperationError(err error) error {
	var opErr *engine.OpError
	if !errors.As(err, &opErr) {
		return err
	}
	if f.Format == "json" {
		if encErr := json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    string(opErr.Code),
				Message: opErr.Message,
				Details: opErr.Details,
			},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", opErr.Code, opErr.Message)
		if f.Verbose {
			for k, v := range opErr.Details {
				fmt.Fprintf(f.Writer, "  %s: %s\n", k, v)
			}
		}
	}
	return &ExitError{Code: ExitFailure, Message: opErr.Message, Err: err}
}

// VerboseLog outputs a message only if verbose mode is enabled. When format
// is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
