// Package stackerr defines the closed set of errors that cross the
// engine/dispatcher boundary. Recoverable errors are returned as values;
// fatal ones are wrapped with context via fmt.Errorf and checked with
// errors.Is/As by callers.
package stackerr

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the taxonomy in the command protocol.
var (
	ErrUnsupportedDwarfVersion = fmt.Errorf("unsupported DWARF version")
	ErrFunctionNotFound        = fmt.Errorf("function not found")
	ErrLineNotFound            = fmt.Errorf("line not found")
	ErrInvalidAddress          = fmt.Errorf("invalid address")
	ErrUnsupportedLocationExpr = fmt.Errorf("unsupported location expression")
	ErrBreakpointWriteFailed   = fmt.Errorf("breakpoint write failed")
	ErrTraceeGone              = fmt.Errorf("tracee is gone")
	ErrSchemaError             = fmt.Errorf("schema error")
	ErrMalformedRequest        = fmt.Errorf("malformed request")
	ErrBreakpointExists        = fmt.Errorf("breakpoint already exists at address")
	ErrNotStopped              = fmt.Errorf("tracee is not stopped")
)

// PtraceError wraps an errno returned by a ptrace(2) call with the
// operation that failed, mirroring delve's PtraceFailed.
type PtraceError struct {
	Op  string
	Err error
}

func (e *PtraceError) Error() string {
	return fmt.Sprintf("ptrace %s: %v", e.Op, e.Err)
}

func (e *PtraceError) Unwrap() error { return e.Err }

// Tag returns the wire-level error tag for err, or "" if err is nil or
// does not match a known sentinel. Used by the dispatcher to populate
// the Response error field without leaking Go error strings the client
// can't match against.
func Tag(err error) string {
	var pe *PtraceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedDwarfVersion):
		return "UnsupportedDwarfVersion"
	case errors.Is(err, ErrFunctionNotFound):
		return "FunctionNotFound"
	case errors.Is(err, ErrLineNotFound):
		return "LineNotFound"
	case errors.Is(err, ErrInvalidAddress):
		return "InvalidAddress"
	case errors.Is(err, ErrUnsupportedLocationExpr):
		return "UnsupportedLocationExpr"
	case errors.Is(err, ErrBreakpointWriteFailed):
		return "BreakpointWriteFailed"
	case errors.Is(err, ErrTraceeGone):
		return "TraceeGone"
	case errors.Is(err, ErrSchemaError):
		return "SchemaError"
	case errors.Is(err, ErrMalformedRequest):
		return "MalformedRequest"
	case errors.As(err, &pe):
		return "PtraceFailed"
	default:
		return "Error"
	}
}
