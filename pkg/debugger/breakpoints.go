package debugger

import (
	"fmt"

	"github.com/stackium/stackium/pkg/binary"
)

// BreakpointPoint is the tagged union {Name(string) | Address(u64)}
// from §4.4's SetBreakpoint argument.
type BreakpointPoint struct {
	Name    string
	Address uint64
	ByName  bool
}

// commonPrologue is the x86_64 `push %rbp; mov %rsp,%rbp` byte
// sequence emitted at -O0 by both gcc and clang for every non-leaf,
// non-naked function. Used as a fallback when the line table doesn't
// mark a second is_stmt row past low PC, per SPEC_FULL.md's
// Function prologue detection supplement (grounded on ks888/tgo and
// SmileEye/tgo's post-prologue breakpoint placement).
var commonPrologue = []byte{0x55, 0x48, 0x89, 0xe5}

// resolveBreakpointAddress implements §4.4's Name resolution: the
// function's low PC advanced past the prologue, conventionally the
// address of the first is_stmt line within the function range.
func (d *Debugger) resolveBreakpointAddress(fn *binary.Function) (uint64, error) {
	if addr, ok := d.bin.PostPrologueAddress(fn); ok {
		return addr, nil
	}
	// No second is_stmt row inside the function's range: fall back to
	// skipping the recognizable prologue bytes directly.
	buf, err := d.proc.ReadMemory(fn.LowPC, len(commonPrologue))
	if err == nil && bytesEqual(buf, commonPrologue) {
		return fn.LowPC + uint64(len(commonPrologue)), nil
	}
	return fn.LowPC, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *Debugger) resolveBreakpointPoint(point BreakpointPoint) (addr uint64, origin string, err error) {
	if !point.ByName {
		return point.Address, "", nil
	}
	fn, err := d.bin.FindFunctionByName(point.Name)
	if err != nil {
		return 0, "", fmt.Errorf("resolving breakpoint %q: %w", point.Name, err)
	}
	addr, err = d.resolveBreakpointAddress(fn)
	if err != nil {
		return 0, "", err
	}
	return addr, fn.Name, nil
}
