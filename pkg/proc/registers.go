package proc

import "golang.org/x/sys/unix"

// RegisterMap flattens a raw ptrace register set into the named
// map[string]uint64 the wire protocol's get_register / Registers
// response use, covering the registers the old delve proctl package
// printed with its PrintRegs helper plus fs_base/gs_base.
func RegisterMap(regs *unix.PtraceRegs) map[string]uint64 {
	return map[string]uint64{
		"rax":    regs.Rax,
		"rbx":    regs.Rbx,
		"rcx":    regs.Rcx,
		"rdx":    regs.Rdx,
		"rsi":    regs.Rsi,
		"rdi":    regs.Rdi,
		"rbp":    regs.Rbp,
		"rsp":    regs.Rsp,
		"r8":     regs.R8,
		"r9":     regs.R9,
		"r10":    regs.R10,
		"r11":    regs.R11,
		"r12":    regs.R12,
		"r13":    regs.R13,
		"r14":    regs.R14,
		"r15":    regs.R15,
		"rip":    regs.Rip,
		"eflags": regs.Eflags,
		"cs":     regs.Cs,
		"ss":     regs.Ss,
		"ds":     regs.Ds,
		"es":     regs.Es,
		"fs":     regs.Fs,
		"gs":     regs.Gs,
		"fs_base": regs.Fs_base,
		"gs_base": regs.Gs_base,
	}
}

// DwarfRegisterReader adapts the live register snapshot to the
// binary.RegisterReader the location-expression evaluator needs,
// mapping DWARF x86_64 register numbers (System V psABI table 3.36)
// to PtraceRegs fields for the small subset stackium's supported
// opcodes (DW_OP_bregN/regN/call_frame_cfa) actually reference.
func DwarfRegisterReader(regs *unix.PtraceRegs) func(int) (uint64, bool) {
	return func(n int) (uint64, bool) {
		switch n {
		case 0:
			return regs.Rax, true
		case 1:
			return regs.Rdx, true
		case 2:
			return regs.Rcx, true
		case 3:
			return regs.Rbx, true
		case 4:
			return regs.Rsi, true
		case 5:
			return regs.Rdi, true
		case 6:
			return regs.Rbp, true
		case 7:
			return regs.Rsp, true
		case 8:
			return regs.R8, true
		case 9:
			return regs.R9, true
		case 10:
			return regs.R10, true
		case 11:
			return regs.R11, true
		case 12:
			return regs.R12, true
		case 13:
			return regs.R13, true
		case 14:
			return regs.R14, true
		case 15:
			return regs.R15, true
		case 16:
			return regs.Rip, true
		default:
			return 0, false
		}
	}
}
