package proc

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Instruction is one decoded x86_64 instruction at a tracee address,
// used for DumpDwarf's disassembly listing (§ SUPPLEMENTED FEATURES),
// the way old delve's x86 decode path and tgo's disassembler both
// surface decoded instructions. StepInstruction results do not carry
// an Instruction.
type Instruction struct {
	Addr   uint64
	Length int
	Text   string
}

// DecodeInstruction reads up to the maximum x86_64 instruction length
// at addr (substituting breakpoint bytes back in, so a patched 0xCC
// never corrupts the decode) and disassembles it.
func (p *Process) DecodeInstruction(addr uint64) (Instruction, error) {
	const maxInstrLen = 15
	buf, err := p.ReadMemory(addr, maxInstrLen)
	if err != nil {
		return Instruction{}, err
	}
	inst, err := x86asm.Decode(buf, 64)
	if err != nil {
		return Instruction{Addr: addr, Length: 1, Text: "(bad)"}, nil
	}
	return Instruction{Addr: addr, Length: inst.Len, Text: x86asm.GNUSyntax(inst, addr, nil)}, nil
}

// DisassembleFunction decodes every instruction between low and high,
// used by DumpDwarf's diagnostic disassembly of the current function.
func (p *Process) DisassembleFunction(low, high uint64) ([]Instruction, error) {
	var out []Instruction
	for pc := low; pc < high; {
		ins, err := p.DecodeInstruction(pc)
		if err != nil {
			return out, err
		}
		out = append(out, ins)
		if ins.Length <= 0 {
			break
		}
		pc += uint64(ins.Length)
	}
	return out, nil
}

func (i Instruction) String() string {
	return fmt.Sprintf("0x%016x: %s", i.Addr, i.Text)
}
