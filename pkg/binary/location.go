package binary

import (
	"encoding/binary"
	"fmt"

	"github.com/stackium/stackium/pkg/stackerr"
)

// DWARF location-expression opcodes stackium understands. Values match
// the DWARF4 standard; unlisted opcodes are rejected with
// ErrUnsupportedLocationExpr per §4.2.
const (
	opAddr         = 0x03
	opReg0         = 0x50 // DW_OP_reg0 .. DW_OP_reg31
	opBreg0        = 0x70 // DW_OP_breg0 .. DW_OP_breg31
	opRegX         = 0x90
	opBregX        = 0x92
	opFbreg        = 0x91
	opCallFrameCFA = 0x9c
)

// RBPDwarfRegNum is the DWARF register number of RBP on x86_64, used
// as the frame base when a subprogram's DW_AT_frame_base is
// DW_OP_call_frame_cfa: the spec treats that case as RBP+16 (the
// return address slot plus the saved RBP slot above the current
// frame's RBP), since stackium does not implement a CFI evaluator.
const RBPDwarfRegNum = 6

// LocationResult is the outcome of evaluating a DWARF location
// expression: either a memory Address (DW_OP_fbreg, DW_OP_addr,
// DW_OP_bregN) or a register number whose value the caller must read
// directly (DW_OP_regN) rather than dereference.
type LocationResult struct {
	IsRegister bool
	Register   int
	Address    uint64
}

// RegisterReader supplies the runtime value of DWARF register n,
// implemented by the process controller over the live tracee
// registers.
type RegisterReader func(dwarfRegNum int) (uint64, bool)

// EvaluateLocation evaluates expr, a DWARF location expression, given
// the current frame base (already resolved from the enclosing
// subprogram's DW_AT_frame_base) and a register reader for bregN/regN
// opcodes. Implements the subset required by §4.2.
func EvaluateLocation(expr []byte, frameBase int64, regs RegisterReader) (LocationResult, error) {
	if len(expr) == 0 {
		return LocationResult{}, stackerr.ErrUnsupportedLocationExpr
	}
	op := expr[0]
	rest := expr[1:]

	switch {
	case op == opAddr:
		if len(rest) < 8 {
			return LocationResult{}, fmt.Errorf("%w: truncated DW_OP_addr", stackerr.ErrUnsupportedLocationExpr)
		}
		return LocationResult{Address: binary.LittleEndian.Uint64(rest[:8])}, nil

	case op == opFbreg:
		off, _, err := decodeSLEB128(rest)
		if err != nil {
			return LocationResult{}, err
		}
		return LocationResult{Address: uint64(frameBase + off)}, nil

	case op >= opReg0 && op <= opReg0+31:
		return LocationResult{IsRegister: true, Register: int(op - opReg0)}, nil

	case op >= opBreg0 && op <= opBreg0+31:
		off, _, err := decodeSLEB128(rest)
		if err != nil {
			return LocationResult{}, err
		}
		regNum := int(op - opBreg0)
		v, ok := regs(regNum)
		if !ok {
			return LocationResult{}, fmt.Errorf("%w: register %d unavailable", stackerr.ErrUnsupportedLocationExpr, regNum)
		}
		return LocationResult{Address: uint64(int64(v) + off)}, nil

	case op == opRegX:
		regNum, _, err := decodeULEB128(rest)
		if err != nil {
			return LocationResult{}, err
		}
		return LocationResult{IsRegister: true, Register: int(regNum)}, nil

	case op == opBregX:
		regNum, n, err := decodeULEB128(rest)
		if err != nil {
			return LocationResult{}, err
		}
		off, _, err := decodeSLEB128(rest[n:])
		if err != nil {
			return LocationResult{}, err
		}
		v, ok := regs(int(regNum))
		if !ok {
			return LocationResult{}, fmt.Errorf("%w: register %d unavailable", stackerr.ErrUnsupportedLocationExpr, regNum)
		}
		return LocationResult{Address: uint64(int64(v) + off)}, nil

	default:
		return LocationResult{}, fmt.Errorf("%w: opcode %#x", stackerr.ErrUnsupportedLocationExpr, op)
	}
}

// FrameBaseFromExpr resolves a subprogram's DW_AT_frame_base
// expression to a concrete frame base value. Per §4.2: DW_OP_reg6
// (RBP) yields the current RBP value; DW_OP_call_frame_cfa is treated
// as RBP+16; any other expression is unsupported.
func FrameBaseFromExpr(expr []byte, regs RegisterReader) (int64, error) {
	if len(expr) == 0 {
		return 0, stackerr.ErrUnsupportedLocationExpr
	}
	if expr[0] == opCallFrameCFA {
		rbp, ok := regs(RBPDwarfRegNum)
		if !ok {
			return 0, fmt.Errorf("%w: RBP unavailable", stackerr.ErrUnsupportedLocationExpr)
		}
		return int64(rbp) + 16, nil
	}
	res, err := EvaluateLocation(expr, 0, regs)
	if err != nil {
		return 0, err
	}
	if res.IsRegister {
		v, ok := regs(res.Register)
		if !ok {
			return 0, fmt.Errorf("%w: register %d unavailable", stackerr.ErrUnsupportedLocationExpr, res.Register)
		}
		return int64(v), nil
	}
	return int64(res.Address), nil
}

func decodeULEB128(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, by := range b {
		result |= uint64(by&0x7f) << shift
		if by&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("%w: truncated ULEB128", stackerr.ErrUnsupportedLocationExpr)
}

func decodeSLEB128(b []byte) (int64, int, error) {
	var result int64
	var shift uint
	var by byte
	i := 0
	for {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("%w: truncated SLEB128", stackerr.ErrUnsupportedLocationExpr)
		}
		by = b[i]
		result |= int64(by&0x7f) << shift
		shift += 7
		i++
		if by&0x80 == 0 {
			break
		}
	}
	if shift < 64 && (by&0x40) != 0 {
		result |= -1 << shift
	}
	return result, i, nil
}
