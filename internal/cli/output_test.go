package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/bundler/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_OperationErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	opErr := &engine.OpError{
		Code:    engine.CodeCapacityExceeded,
		Message: "6 wallet slots exceeds capacity 5",
		Details: map[string]string{"declared": "6", "capacity": "5"},
	}
	err := formatter.OperationError(opErr)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CAPACITY_EXCEEDED", resp.Error.Code)
	assert.Equal(t, "5", resp.Error.Details["capacity"])
}

func TestOutputFormatter_OperationErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	opErr := &engine.OpError{Code: engine.CodeManagerPaused, Message: "operations are paused"}
	err := formatter.OperationError(opErr)
	require.Error(t, err)
	assert.Equal(t, "Error [MANAGER_PAUSED]: operations are paused\n", buf.String())
}

func TestOutputFormatter_OperationErrorPassesThroughNonOpErrors(t *testing.T) {
	formatter := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}}
	plain := errors.New("disk full")
	assert.Equal(t, plain, formatter.OperationError(plain))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(&engine.OpError{Code: engine.CodeUnauthorized, Message: "no proof"}))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w",
		&engine.OpError{Code: engine.CodeIncompleteBundle, Message: "short"})))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("anything else")))
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("cause")
	wrapped := WrapExitError(ExitCommandError, "outer", inner)
	assert.ErrorIs(t, wrapped, inner)
	assert.Contains(t, wrapped.Error(), "outer")
	assert.Contains(t, wrapped.Error(), "cause")
}

func TestVerboseLogRespectsFlag(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())
}
