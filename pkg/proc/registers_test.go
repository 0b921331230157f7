package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestRegisterMap(t *testing.T) {
	regs := &unix.PtraceRegs{Rax: 1, Rbx: 2, Rip: 0x4000, Rsp: 0x7fff0000}
	m := RegisterMap(regs)
	assert.Equal(t, uint64(1), m["rax"])
	assert.Equal(t, uint64(2), m["rbx"])
	assert.Equal(t, uint64(0x4000), m["rip"])
	assert.Equal(t, uint64(0x7fff0000), m["rsp"])
}

func TestDwarfRegisterReaderKnownRegs(t *testing.T) {
	regs := &unix.PtraceRegs{Rax: 10, Rdx: 20, Rbp: 30, Rsp: 40, Rip: 50}
	read := DwarfRegisterReader(regs)

	v, ok := read(0)
	assert.True(t, ok)
	assert.Equal(t, uint64(10), v)

	v, ok = read(6)
	assert.True(t, ok)
	assert.Equal(t, uint64(30), v)

	v, ok = read(16)
	assert.True(t, ok)
	assert.Equal(t, uint64(50), v)
}

func TestDwarfRegisterReaderUnknownReg(t *testing.T) {
	read := DwarfRegisterReader(&unix.PtraceRegs{})
	_, ok := read(17)
	assert.False(t, ok)
}
