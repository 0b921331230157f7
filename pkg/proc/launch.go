package proc

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	binloader "github.com/stackium/stackium/pkg/binary"
	"github.com/stackium/stackium/pkg/logflags"
	"github.com/stackium/stackium/pkg/stackerr"
)

// IOMode controls how the tracee's stdio is connected, per §1's
// Non-goal that stackium never redirects or captures it itself.
type IOMode int

const (
	// IONone connects the tracee's stdio to the null device (driven
	// purely over HTTP).
	IONone IOMode = iota
	// IOInherit attaches the tracee directly to stackium's own stdio.
	IOInherit
	// IOPty attaches the tracee through a pseudo-terminal, so CLI mode
	// gets real terminal line discipline (raw single-character reads,
	// job-control signals) instead of a plain pipe, the way delve's
	// own terminal-mode launch attaches a pty to its target.
	IOPty
)

// TrampolineArg is the hidden first-argument subcommand a re-exec of the
// stackium binary itself is dispatched to. cmd/stackium's root command
// checks for this before Cobra ever parses flags and calls
// RunTrampoline instead of starting the engine, per §4.3's launch
// sequence: "fork; in the child, request tracing, disable
// address-space randomization on the personality, then exec the
// target program." Go's os/exec and syscall.SysProcAttr expose no hook
// to run arbitrary code between fork and exec, so stackium re-execs
// itself as a trampoline process that performs PTRACE_TRACEME and
// personality(ADDR_NO_RANDOMIZE) before replacing its own image with
// the debuggee via execve, the same pid carrying through unchanged.
const TrampolineArg = "__tracee_exec__"

// Launch starts program under ptrace via the self re-exec trampoline
// and waits for the initial post-execve SIGTRAP, transitioning to
// Stopped(Trap) per §4.3. bin is attached to the returned Process so
// Backtrace can resolve each frame's function and source line.
func Launch(program string, args []string, bin *binloader.Binary, ioMode IOMode) (*Process, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving own executable path: %w", err)
	}

	cmdArgs := append([]string{TrampolineArg, program}, args...)
	cmd := exec.Command(self, cmdArgs...)
	// The trampoline child calls PTRACE_TRACEME itself; Setpgid keeps
	// the debuggee's process group separate from stackium's own, so a
	// Ctrl-C at the CLI doesn't also signal the tracee.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	logflags.Proc().Debugf("launching %s via trampoline (io=%v)", program, ioMode)

	var ptmx *os.File
	switch ioMode {
	case IOInherit:
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("starting tracee: %w", err)
		}
	case IOPty:
		ptmx, err = pty.Start(cmd)
		if err != nil {
			return nil, fmt.Errorf("starting tracee under pty: %w", err)
		}
	default:
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("starting tracee: %w", err)
		}
	}
	p := newProcess(cmd.Process.Pid, cmd, bin)
	p.PTY = ptmx
	sr, err := p.wait()
	if err != nil {
		return nil, err
	}
	if sr.Kind != StopTrap {
		return nil, fmt.Errorf("%w: unexpected initial stop %+v", stackerr.ErrTraceeGone, sr)
	}
	if err := unix.PtraceSetOptions(p.Pid, unix.PTRACE_O_EXITKILL); err != nil {
		return nil, wrapPtrace("PTRACE_SETOPTIONS", err)
	}
	return p, nil
}

// RunTrampoline is invoked by cmd/stackium's main when os.Args[1] ==
// TrampolineArg, before Cobra parses any flags. It never returns: on
// success it replaces the current process image with the debuggee via
// execve; on failure it exits non-zero so the waiting parent observes
// an immediate child exit instead of a spurious trap.
func RunTrampoline(argv []string) {
	if len(argv) < 1 {
		fmt.Fprintln(os.Stderr, "stackium: trampoline invoked with no target program")
		os.Exit(1)
	}
	if err := unix.PtraceTraceme(); err != nil {
		fmt.Fprintf(os.Stderr, "stackium: PTRACE_TRACEME: %v\n", err)
		os.Exit(1)
	}
	// ADDR_NO_RANDOMIZE, so DWARF addresses in a -no-pie debuggee's
	// text and data segments match the tracee's runtime addresses
	// exactly; see SPEC_FULL.md's launch sequence.
	const addrNoRandomize = 0x0040000
	if _, err := unix.Personality(addrNoRandomize); err != nil {
		fmt.Fprintf(os.Stderr, "stackium: personality: %v\n", err)
		os.Exit(1)
	}
	program := argv[0]
	if err := syscall.Exec(program, argv, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "stackium: exec %s: %v\n", program, err)
		os.Exit(1)
	}
}
