package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpListsEveryCommand(t *testing.T) {
	d := &Debugger{}
	text := d.Help("")
	for _, tag := range []string{
		"Continue", "Quit", "StepInstruction", "StepIn", "StepOut",
		"GetRegister", "ProgramCounter", "Read", "FindFunc", "FindLine",
		"Location", "ViewSource", "Backtrace", "ReadVariables",
		"SetBreakpoint", "GetBreakpoints", "DebugMeta", "DumpDwarf",
		"WaitPid", "Help",
	} {
		assert.Contains(t, text, tag)
	}
}

func TestHelpIgnoresTopic(t *testing.T) {
	d := &Debugger{}
	assert.Equal(t, d.Help(""), d.Help("anything"))
}
