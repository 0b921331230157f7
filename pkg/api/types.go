// Package api defines the wire-level Command/Response JSON protocol
// from spec §6 and the dispatcher that maps each command tag to a
// debugger.Debugger operation. Grounded on delve's pkg/service/api
// package: plain exported structs with json tags, one per RPC method,
// serialized with the standard encoding/json rather than a generated
// RPC stub.
package api

import (
	"encoding/json"

	"github.com/stackium/stackium/pkg/proc"
)

// Command is the request envelope: a tagged object
// { "Command": <tag>, "Argument": <payload> }. Argument is decoded
// per-command by the dispatcher once Command is known.
type Command struct {
	Command  string          `json:"Command"`
	Argument json.RawMessage `json:"Argument,omitempty"`
}

// Response is the envelope every command returns. Error is the wire
// tag from pkg/stackerr.Tag, empty on success.
type Response struct {
	Result any    `json:"Result,omitempty"`
	Error  string `json:"Error,omitempty"`
}

// StopReason mirrors proc.StopReason for JSON serialization, with a
// string Kind instead of the internal proc.StopKind enum so clients
// don't need to know stackium's internal iota ordering.
type StopReason struct {
	Kind         string `json:"Kind"`
	AtBreakpoint bool   `json:"AtBreakpoint,omitempty"`
	Signal       int    `json:"Signal,omitempty"`
	ExitCode     int    `json:"ExitCode,omitempty"`
}

var stopKindNames = map[proc.StopKind]string{
	proc.StopTrap:       "Trap",
	proc.StopSingleStep: "SingleStep",
	proc.StopSignal:     "Signal",
	proc.StopExited:     "Exited",
	proc.StopTerminated: "Terminated",
}

// ToStopReason converts an internal proc.StopReason to its wire form.
func ToStopReason(sr proc.StopReason) StopReason {
	return StopReason{
		Kind:         stopKindNames[sr.Kind],
		AtBreakpoint: sr.AtBreakpoint,
		Signal:       sr.Signal,
		ExitCode:     sr.ExitCode,
	}
}

// Function mirrors binary.Function for the wire.
type Function struct {
	Name       string `json:"Name"`
	LowPC      uint64 `json:"LowPC"`
	HighPC     uint64 `json:"HighPC"`
	File       string `json:"File"`
	Line       int    `json:"Line"`
	Prototyped bool   `json:"Prototyped"`
}

// Frame mirrors proc.Frame for the wire.
type Frame struct {
	PC       uint64 `json:"PC"`
	CFA      uint64 `json:"CFA"`
	Function string `json:"Function,omitempty"`
	File     string `json:"File,omitempty"`
	Line     int    `json:"Line,omitempty"`
}

// ResolvedVariable mirrors debugger.ResolvedVariable for the wire.
type ResolvedVariable struct {
	Name            string `json:"Name"`
	TypeName        string `json:"TypeName,omitempty"`
	Address         uint64 `json:"Address,omitempty"`
	SizeBytes       int64  `json:"SizeBytes,omitempty"`
	FrameIndex      int    `json:"FrameIndex"`
	SourceLine      int    `json:"SourceLine,omitempty"`
	LocationUnknown bool   `json:"LocationUnknown,omitempty"`
}

// Breakpoint mirrors proc.Breakpoint for the wire.
type Breakpoint struct {
	Address uint64 `json:"Address"`
	Enabled bool   `json:"Enabled"`
	Origin  string `json:"Origin,omitempty"`
}

// BreakpointPointArg is the SetBreakpoint argument: {Name(string) |
// Address(u64)}. Exactly one of Name/Address is expected; Name takes
// precedence when both are present.
type BreakpointPointArg struct {
	Name    string `json:"Name,omitempty"`
	Address uint64 `json:"Address,omitempty"`
}

// ReadArg is the Read command's argument.
type ReadArg struct {
	Address uint64 `json:"Address"`
	Length  int    `json:"Length"`
}

// ReadResult is the Read command's result.
type ReadResult struct {
	Address uint64 `json:"Address"`
	Bytes   []byte `json:"Bytes"`
}

// FindFuncArg is the FindFunc command's argument.
type FindFuncArg struct {
	Name string `json:"Name"`
}

// FindLineArg is the FindLine command's argument.
type FindLineArg struct {
	Filename string `json:"Filename"`
	Line     int    `json:"Line"`
}

// ViewSourceArg is the ViewSource command's argument.
type ViewSourceArg struct {
	ContextLines int `json:"ContextLines"`
}

// DebugMeta mirrors debugger.DebugMetaInfo for the wire.
type DebugMeta struct {
	BinaryName    string   `json:"BinaryName"`
	Files         []string `json:"Files"`
	FunctionCount int      `json:"FunctionCount"`
	VariableCount int      `json:"VariableCount"`
}

// SourceWindow mirrors debugger.SourceWindow for the wire.
type SourceWindow struct {
	File      string   `json:"File"`
	FirstLine int      `json:"FirstLine"`
	Lines     []string `json:"Lines"`
	Current   int      `json:"Current"`
}

// HelpArg is the Help command's optional argument.
type HelpArg struct {
	Topic string `json:"Topic,omitempty"`
}
