package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackium/stackium/pkg/binary"
	"github.com/stackium/stackium/pkg/proc"
)

func noRegs(int) (uint64, bool) { return 0, false }

func TestFrameBaseForFrameNoFrameBase(t *testing.T) {
	frame := proc.Frame{Function: &binary.Function{Name: "leaf"}}
	_, err := frameBaseForFrame(nil, frame, noRegs)
	assert.ErrorIs(t, err, errNoFrameBase)
}

func TestFrameBaseForFrameNilFunction(t *testing.T) {
	_, err := frameBaseForFrame(nil, proc.Frame{}, noRegs)
	assert.ErrorIs(t, err, errNoFrameBase)
}

func TestFrameBaseForFrameUsesCFAAsRBP(t *testing.T) {
	// DW_AT_frame_base = DW_OP_call_frame_cfa, resolved here as CFA+16
	// (the spec's RBP+16 simplification), using the caller frame's own
	// CFA rather than the live (innermost-frame) registers.
	fn := &binary.Function{Name: "caller", FrameBase: []byte{0x9c}} // opCallFrameCFA
	frame := proc.Frame{Function: fn, CFA: 0x7fff1000}
	fb, err := frameBaseForFrame(nil, frame, noRegs)
	require.NoError(t, err)
	assert.Equal(t, int64(0x7fff1000+16), fb)
}

func TestFrameBaseForFrameFallsBackToLiveRegsWhenNoCFA(t *testing.T) {
	fn := &binary.Function{Name: "top", FrameBase: []byte{0x9c}}
	live := func(n int) (uint64, bool) {
		if n == binary.RBPDwarfRegNum {
			return 500, true
		}
		return 0, false
	}
	frame := proc.Frame{Function: fn, CFA: 0}
	fb, err := frameBaseForFrame(nil, frame, live)
	require.NoError(t, err)
	assert.Equal(t, int64(516), fb)
}

func TestOnlyLocalsDropsGlobals(t *testing.T) {
	global := &binary.Variable{Name: "counter"}
	local := &binary.Variable{Name: "i", Function: &binary.Function{Name: "main"}}
	param := &binary.Variable{Name: "argc", Function: &binary.Function{Name: "main"}}

	out := onlyLocals([]*binary.Variable{global, local, param})

	names := make([]string, len(out))
	for i, v := range out {
		names[i] = v.Name
	}
	assert.ElementsMatch(t, []string{"i", "argc"}, names)
}

func TestOnlyLocalsEmptyWhenAllGlobal(t *testing.T) {
	out := onlyLocals([]*binary.Variable{{Name: "a"}, {Name: "b"}})
	assert.Empty(t, out)
}
