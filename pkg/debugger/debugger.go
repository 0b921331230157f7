// Package debugger implements the engine singleton described in §3 of
// the specification: it owns the tracee, the parsed binary, the
// breakpoint table (via pkg/proc) and the last-register snapshot, and
// exposes one method per command-protocol operation in §6. Grounded on
// delve's pkg/service/debugger.Debugger, which plays the identical
// role of serializing every client-visible operation behind one
// engine value bound to a single target process.
package debugger

import (
	"fmt"
	"sync"

	"github.com/stackium/stackium/pkg/binary"
	"github.com/stackium/stackium/pkg/logflags"
	"github.com/stackium/stackium/pkg/proc"
	"github.com/stackium/stackium/pkg/stackerr"
)

// Debugger is the engine singleton. Exactly one tracee per Debugger,
// per §3; all operations are serialized behind mu, matching the
// "command dispatch holds an exclusive lock over the Debugger" rule
// in §5.
type Debugger struct {
	mu sync.Mutex

	bin  *binary.Binary
	proc *proc.Process

	terminal bool // set once the tracee has exited or been killed
}

// Launch loads program's DWARF information and starts it under ptrace
// via pkg/proc.Launch, the fork/exec/personality/trace sequence from
// §4.3. io controls how the tracee's stdio is connected (none, direct
// inherit, or pty) — stackium never captures or redirects it itself,
// per the Non-goal on stdin/stdout redirection, only optionally
// attaches it.
func Launch(program string, args []string, io proc.IOMode) (*Debugger, error) {
	bin, err := binary.Load(program)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", program, err)
	}
	p, err := proc.Launch(program, args, bin, io)
	if err != nil {
		return nil, fmt.Errorf("launching %s: %w", program, err)
	}
	logflags.Debugger().Infof("debugger attached to pid for %s", program)
	return &Debugger{bin: bin, proc: p}, nil
}

// Process exposes the underlying process controller for transports
// that need lower-level access (e.g. its PTY master).
func (d *Debugger) Process() *proc.Process { return d.proc }

// requireLive returns ErrTraceeGone if the tracee has already exited,
// per §7: "subsequent commands (except Quit) return TraceeGone."
func (d *Debugger) requireLive() error {
	if d.terminal {
		return stackerr.ErrTraceeGone
	}
	return nil
}

// observe folds a StopReason into the Debugger's terminal-state
// bookkeeping, called after every operation that can end the tracee's
// life.
func (d *Debugger) observe(sr proc.StopReason, err error) (proc.StopReason, error) {
	if err != nil {
		d.terminal = true
		return sr, err
	}
	if sr.Kind == proc.StopExited || sr.Kind == proc.StopTerminated {
		d.terminal = true
	}
	return sr, nil
}

// Continue implements the Continue command.
func (d *Debugger) Continue() (proc.StopReason, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return proc.StopReason{}, err
	}
	return d.observe(d.proc.Continue())
}

// StepInstruction implements the StepInstruction command.
func (d *Debugger) StepInstruction() (proc.StopReason, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return proc.StopReason{}, err
	}
	return d.observe(d.proc.StepInstruction())
}

// StepIn implements the StepIn command, resolving source lines through
// the loaded Binary's address_to_line.
func (d *Debugger) StepIn() (proc.StopReason, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return proc.StopReason{}, err
	}
	resolve := func(pc uint64) (string, int, bool) {
		line, err := d.bin.AddressToLine(pc)
		if err != nil {
			return "", 0, false
		}
		return line.File, line.Line, true
	}
	return d.observe(d.proc.StepIn(resolve))
}

// StepOut implements the StepOut command.
func (d *Debugger) StepOut() (proc.StopReason, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return proc.StopReason{}, err
	}
	return d.observe(d.proc.StepOut())
}

// GetRegister implements the GetRegister command.
func (d *Debugger) GetRegister() (map[string]uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	regs, err := d.proc.Registers()
	if err != nil {
		return nil, err
	}
	return proc.RegisterMap(regs), nil
}

// ProgramCounter implements the ProgramCounter command.
func (d *Debugger) ProgramCounter() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return 0, err
	}
	return d.proc.ProgramCounter()
}

// Read implements the Read command.
func (d *Debugger) Read(addr uint64, length int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	return d.proc.ReadMemory(addr, length)
}

// FindFunc implements the FindFunc command.
func (d *Debugger) FindFunc(name string) (*binary.Function, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bin.FindFunctionByName(name)
}

// FindLine implements the FindLine command.
func (d *Debugger) FindLine(filename string, line int) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bin.LineToAddress(filename, line)
}

// Location implements the Location command: the source position of
// the current PC.
func (d *Debugger) Location() (binary.SourceLine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return binary.SourceLine{}, err
	}
	pc, err := d.proc.ProgramCounter()
	if err != nil {
		return binary.SourceLine{}, err
	}
	return d.bin.AddressToLine(pc)
}

// Backtrace implements the Backtrace command.
func (d *Debugger) Backtrace() ([]proc.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	return d.proc.Backtrace()
}

// SetBreakpoint implements the SetBreakpoint command. point is either
// a function name or a raw address; for a name, the address is
// resolved to just past the function's prologue per §4.4.
func (d *Debugger) SetBreakpoint(point BreakpointPoint) (*proc.Breakpoint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	addr, origin, err := d.resolveBreakpointPoint(point)
	if err != nil {
		return nil, err
	}
	return d.proc.Breakpoints.Set(addr, origin)
}

// GetBreakpoints implements the GetBreakpoints command.
func (d *Debugger) GetBreakpoints() []*proc.Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.proc.Breakpoints.List()
}

// DebugMeta implements the DebugMeta command.
type DebugMetaInfo struct {
	BinaryName    string
	Files         []string
	FunctionCount int
	VariableCount int
}

func (d *Debugger) DebugMeta() DebugMetaInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	varCount := 0
	for _, fn := range d.bin.Functions() {
		varCount += len(fn.Params) + len(fn.Locals)
	}
	return DebugMetaInfo{
		BinaryName:    d.bin.Path,
		Files:         d.bin.Sources(),
		FunctionCount: len(d.bin.Functions()),
		VariableCount: varCount,
	}
}

// Binary exposes the loaded binary for layers (api/service) that need
// read-only access beyond the command set, e.g. schema generation.
func (d *Debugger) Binary() *binary.Binary { return d.bin }

// Quit tears down the tracee, killing it if still alive. In the
// terminal state Quit returns nil without touching the tracee.
func (d *Debugger) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.terminal {
		return nil
	}
	d.terminal = true
	return d.proc.Kill()
}
