package debugger

import (
	"fmt"
	"strings"
)

// DumpDwarf implements the DumpDwarf command: an opaque diagnostic
// text blob listing every indexed function and, when the tracee is
// stopped inside one, a disassembly of the current function via
// golang.org/x/arch/x86/x86asm (SPEC_FULL.md's SUPPLEMENTED FEATURES).
func (d *Debugger) DumpDwarf() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "binary: %s\n", d.bin.Path)
	fmt.Fprintf(&sb, "functions:\n")
	for _, fn := range d.bin.Functions() {
		fmt.Fprintf(&sb, "  %-24s 0x%016x-0x%016x %s:%d\n", fn.Name, fn.LowPC, fn.HighPC, fn.File, fn.Line)
	}

	if d.terminal {
		return sb.String(), nil
	}

	pc, err := d.proc.ProgramCounter()
	if err == nil {
		if fn, ferr := d.bin.FindFunctionContaining(pc); ferr == nil {
			fmt.Fprintf(&sb, "\ndisassembly of %s (current pc 0x%016x):\n", fn.Name, pc)
			instrs, derr := d.proc.DisassembleFunction(fn.LowPC, fn.HighPC)
			if derr == nil {
				for _, ins := range instrs {
					marker := "  "
					if ins.Addr == pc {
						marker = "=>"
					}
					fmt.Fprintf(&sb, "%s %s\n", marker, ins.String())
				}
			}
		}
	}
	return sb.String(), nil
}

// WaitPid implements the WaitPid command: blocks until the tracee's
// next status change and reports it, for diagnostic use only (§6).
func (d *Debugger) WaitPid() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return "", err
	}
	sr, err := d.observe(d.proc.Continue())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%+v", sr), nil
}

// helpText is the canned response for the Help command, listing every
// command tag from §6.
var helpText = strings.TrimSpace(`
Continue           resume the tracee
Quit               terminate the tracee and exit
StepInstruction    single-step one machine instruction
StepIn             step until the source line changes
StepOut            run until the current function returns
GetRegister        read the general-purpose register snapshot
ProgramCounter     read RIP
Read               read tracee memory
FindFunc           look up a function by name
FindLine           resolve a (file,line) to an address
Location           current source position
ViewSource         a window of source centered on the current line
Backtrace          walk the call stack
ReadVariables      enumerate in-scope variables across all frames
SetBreakpoint      set a breakpoint by name or address
GetBreakpoints     list active breakpoints
DebugMeta          summary of the loaded binary
DumpDwarf          diagnostic DWARF and disassembly dump
WaitPid            block for the next tracee status change
Help               this text
`)

// Help implements the Help command. topic is currently unused; every
// topic returns the full command list, since stackium's command set is
// small enough not to need per-topic pagination.
func (d *Debugger) Help(topic string) string {
	return helpText
}
