package debugger

import (
	"errors"

	"github.com/stackium/stackium/pkg/binary"
	"github.com/stackium/stackium/pkg/proc"
)

// ResolvedVariable is a Variable bound to a concrete address at the PC
// it was resolved at, per §3 and §4.6. LocationUnknown variables are
// still listed (with no usable Address) when their DWARF location
// expression isn't one stackium's evaluator supports.
type ResolvedVariable struct {
	Name            string
	Type            *binary.TypeDescriptor
	Address         uint64
	SizeBytes       int64
	FrameIndex      int
	SourceLine      int
	LocationUnknown bool
}

// ReadVariables implements §4.6: for every active frame (not just the
// top), resolve every in-scope DWARF variable to a concrete address at
// that frame's PC. Globals are always in scope and are only reported
// once, against frame 0.
func (d *Debugger) ReadVariables() ([]ResolvedVariable, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	frames, err := d.proc.Backtrace()
	if err != nil {
		return nil, err
	}
	regs, err := d.proc.Registers()
	if err != nil {
		return nil, err
	}
	regReader := proc.DwarfRegisterReader(regs)

	var out []ResolvedVariable
	for i, frame := range frames {
		vars := d.bin.VariablesInScope(frame.PC)
		if i > 0 {
			vars = onlyLocals(vars)
		}
		for _, v := range vars {
			rv := ResolvedVariable{Name: v.Name, FrameIndex: i, SourceLine: v.Line}
			if td, err := v.Type(d.bin); err == nil {
				rv.Type = td
				rv.SizeBytes = td.Size
			}
			if !v.HasLoc {
				rv.LocationUnknown = true
				out = append(out, rv)
				continue
			}
			frameBase, ferr := frameBaseForFrame(d.bin, frame, regReader)
			if ferr != nil {
				rv.LocationUnknown = true
				out = append(out, rv)
				continue
			}
			loc, lerr := binary.EvaluateLocation(v.Location, frameBase, regReader)
			if lerr != nil || loc.IsRegister {
				rv.LocationUnknown = true
				out = append(out, rv)
				continue
			}
			rv.Address = loc.Address
			out = append(out, rv)
		}
	}
	return out, nil
}

// frameBaseForFrame resolves the DW_AT_frame_base expression of the
// function containing frame.PC against that frame's own register
// state. Only frame 0 has live CPU registers; for caller frames the
// only register EvaluateLocation's supported opcodes ever need is
// RBP, which is exactly frame.CFA by construction (§4.5's Frame.CFA is
// the frame's RBP value).
func frameBaseForFrame(bin *binary.Binary, frame proc.Frame, liveRegs binary.RegisterReader) (int64, error) {
	if frame.Function == nil || frame.Function.FrameBase == nil {
		return 0, errNoFrameBase
	}
	reader := liveRegs
	if frame.CFA != 0 {
		reader = func(n int) (uint64, bool) {
			if n == binary.RBPDwarfRegNum {
				return frame.CFA, true
			}
			return liveRegs(n)
		}
	}
	return binary.FrameBaseFromExpr(frame.Function.FrameBase, reader)
}

var errNoFrameBase = errors.New("function has no DW_AT_frame_base")

// onlyLocals drops globals from vars, keeping parameters and locals.
// VariablesInScope always prepends every CU global regardless of pc, so
// ReadVariables must filter them back out for every frame past the
// innermost one -- globals are reported once, against frame 0, not once
// per frame.
func onlyLocals(vars []*binary.Variable) []*binary.Variable {
	out := vars[:0:0]
	for _, v := range vars {
		if v.Function != nil {
			out = append(out, v)
		}
	}
	return out
}
