// Package toolerrors provides a structured error type for tool handler
// failures (spec §4.3 rule 2/3: a handler failure or panic becomes an
// error tool_result, never a propagated Go error). A ToolError preserves
// message and cause chains, and records which tool produced it, so the
// tool-use processor can both format a useful tool_result and let an
// Observer attribute the failure to a specific tools.Ident.
package toolerrors

import (
	"errors"
	"fmt"

	"github.com/agentrt/runtime/tools"
)

// ToolError is a structured failure returned by a tool handler. Chained
// causes are preserved as ToolErrors so the chain round-trips through
// errors.Is/As without losing the original message.
type ToolError struct {
	// Message is the human-readable summary surfaced in the tool_result block.
	Message string
	// Tool identifies which tool produced the failure, when known. Handlers
	// build ToolErrors without it; toolproc.Process sets it via WithTool at
	// the dispatch site, where the calling block's tool name is known.
	Tool tools.Ident
	// Cause is the underlying ToolError, if any.
	Cause *ToolError
}

// New constructs a ToolError with the given message.
func New(message string) *ToolError {
	if message == "" {
		message = "tool error"
	}
	return &ToolError{Message: message}
}

// NewWithCause constructs a ToolError wrapping an underlying error. cause is
// converted into the ToolError chain via FromError.
func NewWithCause(message string, cause error) *ToolError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ToolError{
		Message: message,
		Cause:   FromError(cause),
	}
}

// WithTool returns a copy of e with Tool set to name. It leaves e itself
// untouched so a handler-constructed ToolError can be shared safely before
// the dispatcher attributes it to a specific call.
func (e *ToolError) WithTool(name tools.Ident) *ToolError {
	if e == nil {
		return nil
	}
	tagged := *e
	tagged.Tool = name
	return &tagged
}

// FromError converts an arbitrary error into a ToolError chain, returning nil
// for a nil err and the error unchanged if it is already a *ToolError.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{
		Message: err.Error(),
		Cause:   FromError(errors.Unwrap(err)),
	}
}

// Errorf formats according to a format specifier and returns a *ToolError.
func Errorf(format string, args ...any) *ToolError {
	return New(fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying cause, supporting errors.Is/As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
