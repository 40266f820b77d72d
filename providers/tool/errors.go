package tool

import (
	"errors"
	"fmt"

	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/leofalp/mathchat/providers/ai"
)

var (
	// ErrUnknownTool means no tool is registered under the requested name.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrArgumentMismatch means the arguments do not match the declared parameters.
	ErrArgumentMismatch = errors.New("argument mismatch")

	// ErrExecutionFailure means the tool function failed or panicked.
	ErrExecutionFailure = errors.New("tool execution failed")

	// ErrDuplicateTool means a tool with the same name is already registered.
	ErrDuplicateTool = errors.New("duplicate tool")

	// ErrInvalidDefinition means a definition was rejected at registration.
	ErrInvalidDefinition = errors.New("invalid tool definition")
)

// Kind classifies a tool error.
type Kind int

const (
	KindUnknownTool Kind = iota + 1
	KindArgumentMismatch
	KindExecutionFailure
	KindDuplicateTool
	KindInvalidDefinition
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnknownTool:
		return ErrUnknownTool
	case KindArgumentMismatch:
		return ErrArgumentMismatch
	case KindExecutionFailure:
		return ErrExecutionFailure
	case KindDuplicateTool:
		return ErrDuplicateTool
	case KindInvalidDefinition:
		return ErrInvalidDefinition
	}
	return nil
}

// Code returns the machine-readable code reported back to the model.
func (k Kind) Code() errorsx.ReasonCode {
	switch k {
	case KindUnknownTool:
		return errorsx.ReasonToolNotFound
	case KindArgumentMismatch:
		return errorsx.ReasonInvalidArguments
	case KindExecutionFailure:
		return errorsx.ReasonToolExecution
	case KindDuplicateTool:
		return errorsx.ReasonToolDuplicate
	case KindInvalidDefinition:
		return errorsx.ReasonToolInvalid
	}
	return errorsx.ReasonUnknown
}

// Error is the typed error returned by the registry. It matches its kind's
// sentinel and the underlying cause with errors.Is.
type Error struct {
	Kind Kind
	Tool string
	Err  error
}

func newError(kind Kind, toolName string, err error) *Error {
	return &Error{Kind: kind, Tool: toolName, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Tool != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Tool)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// ReasonCode implements errorsx.Reasoner.
func (e *Error) ReasonCode() errorsx.ReasonCode {
	return e.Kind.Code()
}

// ResultFromError converts an invocation error into the envelope sent back
// to the model. Errors that are not *Error are reported as execution failures.
func ResultFromError(err error) ai.ToolResult {
	var toolErr *Error
	if errors.As(err, &toolErr) {
		return ai.NewToolResultError(string(toolErr.Kind.Code()), err.Error())
	}
	return ai.NewToolResultError(string(errorsx.ReasonToolExecution), err.Error())
}
