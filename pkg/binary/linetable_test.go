package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackium/stackium/pkg/stackerr"
)

// buildFixtureBinary assembles a Binary with one hand-built compile
// unit and function, bypassing Load/index entirely, the way a small
// DWARF producer would lay out main.c compiled at -O0:
//
//	0x1000  push %rbp; mov %rsp,%rbp   (prologue, line 10, is_stmt but at low PC, not a break target)
//	0x1004  sub $0x10,%rsp             (line 11, is_stmt -- post-prologue)
//	0x1010  <rest of body>             (line 12)
func buildFixtureBinary() *Binary {
	cu := &compileUnit{name: "main.c"}
	cu.lines = []lineRow{
		{Address: 0x1000, File: "main.c", Line: 10, IsStmt: true},
		{Address: 0x1004, File: "main.c", Line: 11, IsStmt: true},
		{Address: 0x1010, File: "main.c", Line: 12, IsStmt: true},
		{Address: 0x1020, File: "main.c", Line: 14, IsStmt: false},
	}
	fn := &Function{Name: "main", LowPC: 0x1000, HighPC: 0x1030, CU: cu}
	return &Binary{
		cus:       []*compileUnit{cu},
		functions: []*Function{fn},
		byName:    map[string]*Function{"main": fn},
	}
}

func TestAddressToLine(t *testing.T) {
	b := buildFixtureBinary()

	line, err := b.AddressToLine(0x1005)
	require.NoError(t, err)
	assert.Equal(t, "main.c", line.File)
	assert.Equal(t, 11, line.Line)

	_, err = b.AddressToLine(0x500)
	assert.ErrorIs(t, err, stackerr.ErrLineNotFound)
}

func TestLineToAddress(t *testing.T) {
	b := buildFixtureBinary()

	addr, err := b.LineToAddress("main.c", 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1010), addr)

	// Basename matching: a full path resolves the same as the bare name.
	addr, err = b.LineToAddress("/src/main.c", 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1004), addr)

	_, err = b.LineToAddress("main.c", 999)
	assert.ErrorIs(t, err, stackerr.ErrLineNotFound)
}

func TestPostPrologueAddress(t *testing.T) {
	b := buildFixtureBinary()
	fn, err := b.FindFunctionByName("main")
	require.NoError(t, err)

	addr, ok := b.PostPrologueAddress(fn)
	require.True(t, ok)
	// First is_stmt row strictly inside (LowPC, HighPC), i.e. not the
	// entry address itself.
	assert.Equal(t, uint64(0x1004), addr)
}

func TestPostPrologueAddressNoLineTable(t *testing.T) {
	b := &Binary{}
	fn := &Function{Name: "bare", LowPC: 0x2000, HighPC: 0x2010}
	_, ok := b.PostPrologueAddress(fn)
	assert.False(t, ok, "a function with no compile unit has no post-prologue row")
}

func TestFindFunctionContaining(t *testing.T) {
	b := buildFixtureBinary()

	fn, err := b.FindFunctionContaining(0x1005)
	require.NoError(t, err)
	assert.Equal(t, "main", fn.Name)

	_, err = b.FindFunctionContaining(0x9000)
	assert.ErrorIs(t, err, stackerr.ErrFunctionNotFound)
}

func TestSources(t *testing.T) {
	b := buildFixtureBinary()
	assert.Equal(t, []string{"main.c"}, b.Sources())
}
