// Package proc is the ptrace-based process controller: it forks and
// execs the tracee, waits on status changes, single-steps
// instructions, continues, and reads/writes registers and memory.
// Grounded on the old derekparker/delve proctl package (syscall-level
// PTRACE_PEEKDATA/POKEDATA/GETREGS/SETREGS against a raw C-ish target)
// and on golang.org/x/sys/unix, the actively maintained ptrace surface
// modern delve itself moved to.
package proc

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	binloader "github.com/stackium/stackium/pkg/binary"
	"github.com/stackium/stackium/pkg/logflags"
	"github.com/stackium/stackium/pkg/stackerr"
)

// State is the tracee lifecycle state from §4.3.
type State int

const (
	StateSpawning State = iota
	StateStopped
	StateRunning
	StateExited
)

// StopKind tags the variant of StopReason, mirroring §3's StopReason
// sum type.
type StopKind int

const (
	StopTrap StopKind = iota
	StopSingleStep
	StopSignal
	StopExited
	StopTerminated
)

// StopReason describes why the tracee most recently stopped.
type StopReason struct {
	Kind         StopKind
	AtBreakpoint bool
	Signal       int
	ExitCode     int
}

// Process is the ptrace controller for a single tracee. Exactly one
// Process is owned by a Debugger at a time (§3: "Exactly one tracee
// per Debugger").
type Process struct {
	Pid         int
	Breakpoints *BreakpointManager
	// PTY is the pseudo-terminal master, set only when Launch was
	// called with IOPty. No part of stackium reads from or writes to it.
	PTY *os.File

	bin   *binloader.Binary
	cmd   *exec.Cmd
	state State
	last  unix.PtraceRegs
}

// wrapPtrace turns a raw ptrace(2)/wait4(2) errno into the PtraceFailed
// taxonomy entry from §7.
func wrapPtrace(op string, err error) error {
	return &stackerr.PtraceError{Op: op, Err: err}
}

// newProcess wires a Process around an already-stopped tracee pid
// (used right after Launch's initial exec trap).
func newProcess(pid int, cmd *exec.Cmd, bin *binloader.Binary) *Process {
	p := &Process{Pid: pid, cmd: cmd, bin: bin, state: StateStopped}
	p.Breakpoints = newBreakpointManager(p)
	return p
}

// State reports the controller's current lifecycle state.
func (p *Process) State() State { return p.state }

// wait blocks for the next status change on the tracee and updates
// state, translating the wait4 status into a StopReason. This is the
// only place the controller blocks (§5).
func (p *Process) wait() (StopReason, error) {
	var ws unix.WaitStatus
	_, err := unix.Wait4(p.Pid, &ws, 0, nil)
	if err != nil {
		p.state = StateExited
		return StopReason{}, wrapPtrace("wait4", err)
	}

	switch {
	case ws.Exited():
		p.state = StateExited
		return StopReason{Kind: StopExited, ExitCode: ws.ExitStatus()}, nil

	case ws.Signaled():
		p.state = StateExited
		return StopReason{Kind: StopTerminated, Signal: int(ws.Signal())}, nil

	case ws.Stopped():
		p.state = StateStopped
		sig := ws.StopSignal()
		if sig != unix.SIGTRAP {
			return StopReason{Kind: StopSignal, Signal: int(sig)}, nil
		}
		pc, err := p.rawPC()
		if err != nil {
			return StopReason{}, err
		}
		// A software breakpoint's 0xCC executes as a one-byte
		// instruction, leaving RIP one past the patched address.
		if bp, ok := p.Breakpoints.At(pc - 1); ok && bp.Enabled {
			if err := p.setPC(pc - 1); err != nil {
				return StopReason{}, err
			}
			return StopReason{Kind: StopTrap, AtBreakpoint: true}, nil
		}
		return StopReason{Kind: StopTrap}, nil

	default:
		return StopReason{}, fmt.Errorf("unexpected wait status %#x", uint32(ws))
	}
}

// Continue resumes the tracee until the next stop. Per §4.3: if PC is
// currently on an enabled breakpoint, it is transparently stepped over
// first (unpatch, step, repatch) with no intermediate stop surfaced,
// then execution resumes normally. If a breakpoint is hit, PC is
// rewound by one so it points at the patched instruction.
func (p *Process) Continue() (StopReason, error) {
	if p.state != StateStopped {
		return StopReason{}, stackerr.ErrNotStopped
	}
	pc, err := p.ProgramCounter()
	if err != nil {
		return StopReason{}, err
	}
	if bp, ok := p.Breakpoints.At(pc); ok {
		sr, err := p.stepOverBreakpoint(bp)
		if err != nil {
			return sr, err
		}
		if sr.Kind == StopExited || sr.Kind == StopTerminated {
			return sr, nil
		}
	}
	logflags.Proc().Debugf("PTRACE_CONT pid=%d", p.Pid)
	if err := unix.PtraceCont(p.Pid, 0); err != nil {
		return StopReason{}, wrapPtrace("PTRACE_CONT", err)
	}
	return p.wait()
}

// StepInstruction single-steps one machine instruction. If currently
// stopped on a breakpoint, it is transparently unpatched, stepped and
// repatched (§4.3).
func (p *Process) StepInstruction() (StopReason, error) {
	if p.state != StateStopped {
		return StopReason{}, stackerr.ErrNotStopped
	}
	pc, err := p.ProgramCounter()
	if err != nil {
		return StopReason{}, err
	}
	if bp, ok := p.Breakpoints.At(pc); ok {
		return p.stepOverBreakpoint(bp)
	}
	if err := unix.PtraceSingleStep(p.Pid); err != nil {
		return StopReason{}, wrapPtrace("PTRACE_SINGLESTEP", err)
	}
	return p.wait()
}

// stepOverBreakpoint implements the transparent step-over subprotocol
// from §4.4 as a small local state machine: disarm, single-step, wait,
// re-arm. Re-arming happens regardless of what signal was delivered by
// the step, short of the tracee dying, so a breakpoint is never left
// disabled by a failed or interrupted step.
func (p *Process) stepOverBreakpoint(bp *Breakpoint) (StopReason, error) {
	if err := p.Breakpoints.disarm(bp); err != nil {
		return StopReason{}, err
	}
	if err := unix.PtraceSingleStep(p.Pid); err != nil {
		_ = p.Breakpoints.arm(bp)
		return StopReason{}, wrapPtrace("PTRACE_SINGLESTEP", err)
	}
	sr, err := p.wait()
	if err != nil {
		return sr, err
	}
	if sr.Kind != StopExited && sr.Kind != StopTerminated {
		if err := p.Breakpoints.arm(bp); err != nil {
			return sr, err
		}
	}
	return sr, nil
}

// StepOut runs until the current function returns, per §4.3: reads
// the return address from [RBP+8], plants a temporary breakpoint
// there (unless a user breakpoint already occupies that address),
// continues, then removes the temporary breakpoint. User breakpoints
// are left untouched throughout.
func (p *Process) StepOut() (StopReason, error) {
	regs, err := p.Registers()
	if err != nil {
		return StopReason{}, err
	}
	retBuf, err := p.rawReadMemory(regs.Rbp+8, 8)
	if err != nil {
		return StopReason{}, err
	}
	retAddr := binary.LittleEndian.Uint64(retBuf)

	_, hadExisting := p.Breakpoints.At(retAddr)
	if !hadExisting {
		if _, err := p.Breakpoints.Set(retAddr, ""); err != nil {
			return StopReason{}, err
		}
	}
	sr, err := p.Continue()
	if !hadExisting {
		if rmErr := p.Breakpoints.Remove(retAddr); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return sr, err
}

// LineResolver resolves a PC to a (file, line) pair; StepIn uses it to
// detect when a new source line has been reached. Implemented by
// *binary.Binary.AddressToLine through a thin adapter in pkg/debugger.
type LineResolver func(pc uint64) (file string, line int, ok bool)

// StepIn repeatedly single-steps until address_to_line(pc) changes to
// a different (file,line) pair from the one at entry, or the program
// exits (§4.3). StepIn does not attempt to distinguish a call into a
// new function from a line change within the same function; per §9
// this is defined only for non-inlined code, consistent with the
// -O0 debuggee contract.
func (p *Process) StepIn(resolve LineResolver) (StopReason, error) {
	startPC, err := p.ProgramCounter()
	if err != nil {
		return StopReason{}, err
	}
	file0, line0, _ := resolve(startPC)

	for {
		sr, err := p.StepInstruction()
		if err != nil {
			return sr, err
		}
		if sr.Kind == StopExited || sr.Kind == StopTerminated {
			return sr, nil
		}
		pc, err := p.ProgramCounter()
		if err != nil {
			return StopReason{}, err
		}
		file, line, ok := resolve(pc)
		if !ok || file != file0 || line != line0 {
			return sr, nil
		}
	}
}

// rawPC reads RIP directly from the tracee without consulting the
// breakpoint table, used internally by wait() before it knows whether
// the stop was caused by a breakpoint.
func (p *Process) rawPC() (uint64, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(p.Pid, &regs); err != nil {
		return 0, wrapPtrace("PTRACE_GETREGS", err)
	}
	p.last = regs
	return regs.Rip, nil
}

func (p *Process) setPC(pc uint64) error {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(p.Pid, &regs); err != nil {
		return wrapPtrace("PTRACE_GETREGS", err)
	}
	regs.Rip = pc
	if err := unix.PtraceSetRegs(p.Pid, &regs); err != nil {
		return wrapPtrace("PTRACE_SETREGS", err)
	}
	p.last = regs
	return nil
}

// ProgramCounter returns RIP, already rewound past any breakpoint
// hit by the most recent stop (§4.3).
func (p *Process) ProgramCounter() (uint64, error) {
	regs, err := p.Registers()
	if err != nil {
		return 0, err
	}
	return regs.Rip, nil
}

// Registers returns a snapshot of the tracee's general-purpose
// registers at the current stop.
func (p *Process) Registers() (*unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(p.Pid, &regs); err != nil {
		return nil, wrapPtrace("PTRACE_GETREGS", err)
	}
	p.last = regs
	return &regs, nil
}

// SetRegisters writes regs back to the tracee.
func (p *Process) SetRegisters(regs *unix.PtraceRegs) error {
	if err := unix.PtraceSetRegs(p.Pid, regs); err != nil {
		return wrapPtrace("PTRACE_SETREGS", err)
	}
	p.last = *regs
	return nil
}

// rawReadMemory reads length bytes at addr without substituting
// breakpoint bytes back in; used internally for stack reads, where the
// caller already knows it isn't reading instruction bytes, and by the
// breakpoint manager to capture the byte a new breakpoint displaces.
func (p *Process) rawReadMemory(addr uint64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := unix.PtracePeekData(p.Pid, uintptr(addr), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stackerr.ErrInvalidAddress, err)
	}
	return buf[:n], nil
}

// ReadMemory reads length bytes at addr and substitutes the saved
// original byte for any enabled breakpoint within the range, so
// clients never observe a patched 0xCC (§4.3, invariant in §3).
func (p *Process) ReadMemory(addr uint64, length int) ([]byte, error) {
	buf, err := p.rawReadMemory(addr, length)
	if err != nil {
		return nil, err
	}
	for _, bp := range p.Breakpoints.List() {
		if bp.Addr >= addr && bp.Addr < addr+uint64(length) && bp.Enabled {
			buf[bp.Addr-addr] = bp.Orig
		}
	}
	return buf, nil
}

// WriteMemory writes data at addr. The breakpoint manager does not use
// it (it pokes its own bytes); it is exported so higher layers (e.g. a
// future memory-editing command) can write without going through
// breakpoints.
func (p *Process) WriteMemory(addr uint64, data []byte) error {
	if _, err := unix.PtracePokeData(p.Pid, uintptr(addr), data); err != nil {
		return fmt.Errorf("%w: %v", stackerr.ErrInvalidAddress, err)
	}
	return nil
}

// Kill sends SIGKILL to the tracee and reaps it, used by Quit to tear
// down a still-running tracee rather than leave a zombie behind.
func (p *Process) Kill() error {
	if p.state == StateExited {
		return nil
	}
	if err := unix.Kill(p.Pid, unix.SIGKILL); err != nil {
		return wrapPtrace("kill", err)
	}
	_, err := p.wait()
	return err
}

// MemoryRegion is one parsed row of /proc/<pid>/maps.
type MemoryRegion struct {
	Low, High         uint64
	Read, Write, Exec bool
	Path              string
}

// MemoryMap parses /proc/<pid>/maps, letting a client pre-validate an
// address before issuing Read, per the contract documented in §4.3
// ("caller is expected to pre-check against /proc/<pid>/maps").
func (p *Process) MemoryMap() ([]MemoryRegion, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", p.Pid))
	if err != nil {
		return nil, fmt.Errorf("reading /proc/%d/maps: %w", p.Pid, err)
	}
	return parseMaps(data), nil
}
