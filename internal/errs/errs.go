// Package errs defines the error taxonomy shared by every component of the
// agent core: validation, storage, network, provider, tool and model errors,
// plus the cancellation sentinel.
package errs

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned in place of a result whenever a caller's stop()
// was observed at a suspension point. It may arrive wrapped in a Model error,
// so callers test for it with errors.Is.
var ErrCancelled = errors.New("cancelled")

// Kind discriminates the error taxonomy described for the generation
// pipeline. Each Kind carries its own retry/propagation rule.
type Kind string

const (
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
	KindNetwork    Kind = "network"
	KindProvider   Kind = "provider"
	KindTool       Kind = "tool"
	KindModel      Kind = "model"
)

// Error is the concrete type behind every taxonomy member. Components build
// one with New and inspect one with As/Is via the Kind field.
type Error struct {
	Kind      Kind
	Op        string // component/operation that raised it, e.g. "memory.Window"
	Message   string
	Cause     error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Op != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause, Retryable: kind == KindNetwork}
}

// Validation wraps a rejected construction or argument (model-config range
// checks, tool-argument required/unknown/enum checks). Never retried.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message, nil)
}

// Storage wraps a History Store substrate failure. Retryable is set by the
// store implementation based on whether the failure looks transient.
func Storage(op string, cause error, retryable bool) *Error {
	e := New(KindStorage, op, "storage operation failed", cause)
	e.Retryable = retryable
	return e
}

// Network wraps a transport-level failure against the completion endpoint.
// Always retryable by the Completion Client's backoff policy.
func Network(op string, cause error) *Error {
	return New(KindNetwork, op, "network failure", cause)
}

// Provider wraps a non-transient rejection from the completion endpoint
// (bad request, auth failure, context-length exceeded). Never retried.
func Provider(op, message string, cause error) *Error {
	return New(KindProvider, op, message, cause)
}

// Tool wraps a failure raised while resolving or invoking a tool.
// Tool errors never propagate past the executor: they are always converted
// to a ToolResult before reaching the orchestrator.
func Tool(op, toolName, message string, cause error) *Error {
	e := New(KindTool, op, message, cause)
	e.Message = fmt.Sprintf("tool %q: %s", toolName, message)
	return e
}

// Model wraps an orchestrator-level failure: cancellation, an
// already-running instance, or an unrecoverable provider/tool error
// re-raised after retry exhaustion.
func Model(op, message string, cause error) *Error {
	return New(KindModel, op, message, cause)
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err should be retried by a caller with its own
// backoff policy (distinct from the Completion Client's internal retry,
// which handles Network itself).
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
