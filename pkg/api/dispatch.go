package api

import (
	"encoding/json"
	"fmt"

	"github.com/stackium/stackium/pkg/debugger"
	"github.com/stackium/stackium/pkg/stackerr"
)

// Dispatcher maps each Command tag to one debugger.Debugger operation,
// serializing the result back into a Response, per §4.7. Each Dispatch
// call already runs with the Debugger's own internal lock held by the
// individual operation methods, so the dispatcher itself adds no
// further locking — there is exactly one Debugger per Dispatcher and
// command order is whatever order the transport hands commands to
// Dispatch in (§5's single-threaded cooperative model).
type Dispatcher struct {
	dbg *debugger.Debugger
}

// NewDispatcher wraps dbg for command dispatch.
func NewDispatcher(dbg *debugger.Debugger) *Dispatcher {
	return &Dispatcher{dbg: dbg}
}

// Dispatch decodes cmd's argument (per the known shape for cmd.Command)
// calls the matching Debugger operation, and returns a Response. An
// unrecognized Command tag or malformed Argument yields MalformedRequest,
// except for ViewSource and Help, which fall back to their zero-value
// argument when the Argument does not decode.
func (d *Dispatcher) Dispatch(cmd Command) Response {
	result, err := d.dispatch(cmd)
	if err != nil {
		return Response{Error: stackerr.Tag(err)}
	}
	return Response{Result: result}
}

func (d *Dispatcher) dispatch(cmd Command) (any, error) {
	switch cmd.Command {
	case "Continue":
		sr, err := d.dbg.Continue()
		return ToStopReason(sr), err

	case "Quit":
		return "ok", d.dbg.Quit()

	case "StepInstruction":
		sr, err := d.dbg.StepInstruction()
		return ToStopReason(sr), err

	case "StepIn":
		sr, err := d.dbg.StepIn()
		return ToStopReason(sr), err

	case "StepOut":
		sr, err := d.dbg.StepOut()
		return ToStopReason(sr), err

	case "GetRegister":
		return d.dbg.GetRegister()

	case "ProgramCounter":
		return d.dbg.ProgramCounter()

	case "Read":
		var arg ReadArg
		if err := unmarshalArg(cmd.Argument, &arg); err != nil {
			return nil, err
		}
		bytes, err := d.dbg.Read(arg.Address, arg.Length)
		if err != nil {
			return nil, err
		}
		return ReadResult{Address: arg.Address, Bytes: bytes}, nil

	case "FindFunc":
		var arg FindFuncArg
		if err := unmarshalArg(cmd.Argument, &arg); err != nil {
			return nil, err
		}
		fn, err := d.dbg.FindFunc(arg.Name)
		if err != nil {
			return nil, err
		}
		return Function{Name: fn.Name, LowPC: fn.LowPC, HighPC: fn.HighPC, File: fn.File, Line: fn.Line, Prototyped: fn.Prototyped}, nil

	case "FindLine":
		var arg FindLineArg
		if err := unmarshalArg(cmd.Argument, &arg); err != nil {
			return nil, err
		}
		return d.dbg.FindLine(arg.Filename, arg.Line)

	case "Location":
		loc, err := d.dbg.Location()
		if err != nil {
			return nil, err
		}
		return loc, nil

	case "ViewSource":
		var arg ViewSourceArg
		_ = unmarshalArg(cmd.Argument, &arg) // zero value (no context) is valid
		win, err := d.dbg.ViewSource(arg.ContextLines)
		if err != nil {
			return nil, err
		}
		return SourceWindow{File: win.File, FirstLine: win.FirstLine, Lines: win.Lines, Current: win.Current}, nil

	case "Backtrace":
		frames, err := d.dbg.Backtrace()
		if err != nil {
			return nil, err
		}
		out := make([]Frame, len(frames))
		for i, f := range frames {
			wf := Frame{PC: f.PC, CFA: f.CFA, File: f.File, Line: f.Line}
			if f.Function != nil {
				wf.Function = f.Function.Name
			}
			out[i] = wf
		}
		return out, nil

	case "ReadVariables":
		vars, err := d.dbg.ReadVariables()
		if err != nil {
			return nil, err
		}
		out := make([]ResolvedVariable, len(vars))
		for i, v := range vars {
			wv := ResolvedVariable{
				Name: v.Name, Address: v.Address, SizeBytes: v.SizeBytes,
				FrameIndex: v.FrameIndex, SourceLine: v.SourceLine, LocationUnknown: v.LocationUnknown,
			}
			if v.Type != nil {
				wv.TypeName = v.Type.Name
			}
			out[i] = wv
		}
		return out, nil

	case "SetBreakpoint":
		var arg BreakpointPointArg
		if err := unmarshalArg(cmd.Argument, &arg); err != nil {
			return nil, err
		}
		point := debugger.BreakpointPoint{Name: arg.Name, Address: arg.Address, ByName: arg.Name != ""}
		bp, err := d.dbg.SetBreakpoint(point)
		if err != nil {
			return nil, err
		}
		return Breakpoint{Address: bp.Addr, Enabled: bp.Enabled, Origin: bp.Origin}, nil

	case "GetBreakpoints":
		bps := d.dbg.GetBreakpoints()
		out := make([]Breakpoint, len(bps))
		for i, bp := range bps {
			out[i] = Breakpoint{Address: bp.Addr, Enabled: bp.Enabled, Origin: bp.Origin}
		}
		return out, nil

	case "DebugMeta":
		m := d.dbg.DebugMeta()
		return DebugMeta{BinaryName: m.BinaryName, Files: m.Files, FunctionCount: m.FunctionCount, VariableCount: m.VariableCount}, nil

	case "DumpDwarf":
		return d.dbg.DumpDwarf()

	case "WaitPid":
		return d.dbg.WaitPid()

	case "Help":
		var arg HelpArg
		_ = unmarshalArg(cmd.Argument, &arg)
		return d.dbg.Help(arg.Topic), nil

	default:
		return nil, fmt.Errorf("%w: unknown command %q", stackerr.ErrMalformedRequest, cmd.Command)
	}
}

func unmarshalArg(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", stackerr.ErrMalformedRequest, err)
	}
	return nil
}
