package proc

import (
	"fmt"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/stackium/stackium/pkg/stackerr"
)

// breakpointOpcode is the one-byte INT3 trap instruction patched over
// the original byte at a breakpoint address, per §4.4.
const breakpointOpcode = 0xCC

// Breakpoint is one software breakpoint: the address it was set at,
// the original instruction byte it displaced, and whether the 0xCC
// patch is currently present in the tracee's text.
type Breakpoint struct {
	Addr    uint64
	Orig    byte
	Enabled bool
	Origin  string // function name the breakpoint was resolved from, if any
}

// BreakpointManager owns the set of active breakpoints for a Process
// and enforces the invariant that the patched byte is never visible
// to a client reading tracee memory (§3, §4.4).
type BreakpointManager struct {
	proc   *Process
	byAddr map[uint64]*Breakpoint
}

func newBreakpointManager(p *Process) *BreakpointManager {
	return &BreakpointManager{proc: p, byAddr: map[uint64]*Breakpoint{}}
}

// Set installs a breakpoint at addr, saving the original byte first.
// Setting a breakpoint at an address that already has one is
// idempotent and returns the existing Breakpoint, per §4.4's "setting
// a duplicate breakpoint at the same address is a no-op returning the
// existing breakpoint".
func (m *BreakpointManager) Set(addr uint64, origin string) (*Breakpoint, error) {
	if bp, ok := m.byAddr[addr]; ok {
		return bp, nil
	}
	orig, err := m.proc.rawReadMemory(addr, 1)
	if err != nil {
		return nil, fmt.Errorf("reading original byte at %#x: %w", addr, err)
	}
	bp := &Breakpoint{Addr: addr, Orig: orig[0], Origin: origin}
	if err := m.arm(bp); err != nil {
		return nil, err
	}
	m.byAddr[addr] = bp
	return bp, nil
}

// Remove clears the breakpoint at addr, restoring the original byte.
// Removing an address with no breakpoint is a no-op.
func (m *BreakpointManager) Remove(addr uint64) error {
	bp, ok := m.byAddr[addr]
	if !ok {
		return nil
	}
	if err := m.disarm(bp); err != nil {
		return err
	}
	delete(m.byAddr, addr)
	return nil
}

// At returns the enabled breakpoint at addr, if any.
func (m *BreakpointManager) At(addr uint64) (*Breakpoint, bool) {
	bp, ok := m.byAddr[addr]
	if !ok || !bp.Enabled {
		return nil, false
	}
	return bp, true
}

// List returns every tracked breakpoint (enabled or mid-step-over),
// sorted by address.
func (m *BreakpointManager) List() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(m.byAddr))
	for _, bp := range m.byAddr {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// arm patches the 0xCC opcode in, recording success on the Breakpoint.
func (m *BreakpointManager) arm(bp *Breakpoint) error {
	if bp.Enabled {
		return nil
	}
	if _, err := unix.PtracePokeData(m.proc.Pid, uintptr(bp.Addr), []byte{breakpointOpcode}); err != nil {
		return fmt.Errorf("%w: %v", stackerr.ErrBreakpointWriteFailed, err)
	}
	bp.Enabled = true
	return nil
}

// disarm restores the saved original byte, used for transparent
// step-over and for Remove.
func (m *BreakpointManager) disarm(bp *Breakpoint) error {
	if !bp.Enabled {
		return nil
	}
	if _, err := unix.PtracePokeData(m.proc.Pid, uintptr(bp.Addr), []byte{bp.Orig}); err != nil {
		return fmt.Errorf("%w: %v", stackerr.ErrBreakpointWriteFailed, err)
	}
	bp.Enabled = false
	return nil
}
