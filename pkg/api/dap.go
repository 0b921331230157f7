package api

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/google/go-dap"
)

// DAPAdapter translates a subset of the Debug Adapter Protocol into
// Dispatcher calls, so editors that speak DAP (rather than stackium's
// native Command/Response JSON) can drive the same engine. Grounded on
// delve's dap package, which layers a DAP session on top of the same
// underlying debugger.Debugger stackium's own HTTP transport uses.
// Only the handful of requests a step-debugging student actually
// needs are handled; anything else is not answered (see HandleMessage).
type DAPAdapter struct {
	dispatch *Dispatcher
}

// NewDAPAdapter wraps d for DAP translation.
func NewDAPAdapter(d *Dispatcher) *DAPAdapter {
	return &DAPAdapter{dispatch: d}
}

// HandleMessage decodes one DAP protocol message from r and returns its
// response, translating ContinueRequest/NextRequest/StepInRequest/
// StepOutRequest/StackTraceRequest into the matching Dispatcher
// command. Any other message yields a nil message and a nil error.
func (a *DAPAdapter) HandleMessage(r io.Reader) (dap.Message, error) {
	msg, err := dap.ReadProtocolMessage(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *dap.ContinueRequest:
		a.dispatch.Dispatch(Command{Command: commandForRequest(m)})
		return &dap.ContinueResponse{Response: newResponse(m.Seq, m.Command)}, nil

	case *dap.NextRequest:
		a.dispatch.Dispatch(Command{Command: commandForRequest(m)})
		return &dap.NextResponse{Response: newResponse(m.Seq, m.Command)}, nil

	case *dap.StepInRequest:
		a.dispatch.Dispatch(Command{Command: commandForRequest(m)})
		return &dap.StepInResponse{Response: newResponse(m.Seq, m.Command)}, nil

	case *dap.StepOutRequest:
		a.dispatch.Dispatch(Command{Command: commandForRequest(m)})
		return &dap.StepOutResponse{Response: newResponse(m.Seq, m.Command)}, nil

	case *dap.StackTraceRequest:
		resp := a.dispatch.Dispatch(Command{Command: "Backtrace"})
		frames, _ := json.Marshal(resp.Result)
		var wire []Frame
		_ = json.Unmarshal(frames, &wire)
		out := &dap.StackTraceResponse{Response: newResponse(m.Seq, m.Command)}
		for i, f := range wire {
			out.Body.StackFrames = append(out.Body.StackFrames, dap.StackFrame{
				Id: i, Name: f.Function, Line: f.Line, Column: 0,
			})
		}
		return out, nil

	default:
		return nil, nil
	}
}

// commandForRequest maps a DAP request to the Dispatcher command tag
// it translates to. "Next" is DAP's line-granularity step-over; StepIn
// is the closest primitive stackium exposes (stepping until the source
// line changes), not StepOut (run until the function returns).
func commandForRequest(msg dap.Message) string {
	switch msg.(type) {
	case *dap.ContinueRequest:
		return "Continue"
	case *dap.NextRequest:
		return "StepIn"
	case *dap.StepInRequest:
		return "StepIn"
	case *dap.StepOutRequest:
		return "StepOut"
	default:
		return ""
	}
}

func newResponse(requestSeq int, command string) dap.Response {
	return dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: 0, Type: "response"},
		RequestSeq:      requestSeq,
		Success:         true,
		Command:         command,
	}
}
