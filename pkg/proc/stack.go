package proc

import (
	"fmt"

	binloader "github.com/stackium/stackium/pkg/binary"
)

// maxStackDepth bounds the number of frames Backtrace walks, per §4.5:
// "the walk is capped at 64 frames; a corrupted or absent RBP chain
// truncates the backtrace rather than erroring."
const maxStackDepth = 64

// Frame is one resolved stack frame: the return address, the saved
// RBP that produced it, and (when resolvable) the function and source
// position it falls within.
type Frame struct {
	PC       uint64
	CFA      uint64 // the frame's RBP value, i.e. its canonical frame address
	Function *binloader.Function
	File     string
	Line     int
}

// Backtrace walks the RBP chain starting at the current stop, the way
// a debugger built against -O0 frame-pointer-preserving code always
// could before DWARF CFI existed: frame zero's PC is the current RIP,
// its CFA is the current RBP; each subsequent frame's return address
// lives at [RBP+8] and its caller's saved RBP at [RBP+0]. This is
// deliberately simpler than a CFI/FDE evaluator (Non-goal: unwinding
// through frame-pointer-omitting optimized code) and walks only as far
// as the chain stays sane.
func (p *Process) Backtrace() ([]Frame, error) {
	regs, err := p.Registers()
	if err != nil {
		return nil, err
	}
	pc, rbp := regs.Rip, regs.Rbp

	var frames []Frame
	for i := 0; i < maxStackDepth; i++ {
		f := Frame{PC: pc, CFA: rbp}
		if p.bin != nil {
			if fn, err := p.bin.FindFunctionContaining(pc); err == nil {
				f.Function = fn
			}
			if line, err := p.bin.AddressToLine(pc); err == nil {
				f.File, f.Line = line.File, line.Line
			}
		}
		frames = append(frames, f)

		if rbp == 0 {
			break
		}
		savedRBP, err := p.rawReadMemory(rbp, 8)
		if err != nil {
			break
		}
		retAddr, err := p.rawReadMemory(rbp+8, 8)
		if err != nil {
			break
		}
		nextRBP := le64(savedRBP)
		nextPC := le64(retAddr)
		if nextPC == 0 || nextRBP == 0 {
			break
		}
		if p.bin != nil {
			if _, err := p.bin.FindFunctionContaining(nextPC); err != nil {
				// The return address no longer resolves to any known
				// function; the chain is either finished (we've
				// unwound past main into libc's startup code) or
				// corrupted. Either way, stop here rather than walk
				// garbage.
				break
			}
		}
		pc, rbp = nextPC, nextRBP
	}
	return frames, nil
}

func le64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// String renders a frame on one line, e.g.
// "0x0000000000401136 in main at main.c:12".
func (f Frame) String() string {
	name := "??"
	if f.Function != nil {
		name = f.Function.Name
	}
	if f.File != "" {
		return fmt.Sprintf("0x%016x in %s at %s:%d", f.PC, name, f.File, f.Line)
	}
	return fmt.Sprintf("0x%016x in %s", f.PC, name)
}
