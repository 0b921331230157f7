package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackium/stackium/pkg/stackerr"
)

func regsFixture(rbp, rax uint64) RegisterReader {
	return func(n int) (uint64, bool) {
		switch n {
		case 0:
			return rax, true
		case 6:
			return rbp, true
		default:
			return 0, false
		}
	}
}

func TestEvaluateLocationFbreg(t *testing.T) {
	// DW_OP_fbreg -8: a local at frame_base - 8.
	expr := []byte{opFbreg, 0x78} // SLEB128(-8) = 0x78
	res, err := EvaluateLocation(expr, 100, regsFixture(0, 0))
	require.NoError(t, err)
	assert.False(t, res.IsRegister)
	assert.Equal(t, uint64(92), res.Address)
}

func TestEvaluateLocationAddr(t *testing.T) {
	expr := make([]byte, 9)
	expr[0] = opAddr
	expr[1] = 0x10 // little-endian 0x10 -> address 0x10
	res, err := EvaluateLocation(expr, 0, regsFixture(0, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10), res.Address)
}

func TestEvaluateLocationReg(t *testing.T) {
	// DW_OP_reg0 refers directly to RAX's value, not a memory address.
	expr := []byte{opReg0 + 0}
	res, err := EvaluateLocation(expr, 0, regsFixture(0, 42))
	require.NoError(t, err)
	assert.True(t, res.IsRegister)
	assert.Equal(t, 0, res.Register)
}

func TestEvaluateLocationBreg(t *testing.T) {
	// DW_OP_breg6 (rbp) + 16.
	expr := []byte{opBreg0 + 6, 0x10}
	res, err := EvaluateLocation(expr, 0, regsFixture(1000, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1016), res.Address)
}

func TestEvaluateLocationUnsupportedOpcode(t *testing.T) {
	_, err := EvaluateLocation([]byte{0xFF}, 0, regsFixture(0, 0))
	assert.ErrorIs(t, err, stackerr.ErrUnsupportedLocationExpr)
}

func TestEvaluateLocationEmptyExpr(t *testing.T) {
	_, err := EvaluateLocation(nil, 0, regsFixture(0, 0))
	assert.ErrorIs(t, err, stackerr.ErrUnsupportedLocationExpr)
}

func TestFrameBaseFromExprCallFrameCFA(t *testing.T) {
	fb, err := FrameBaseFromExpr([]byte{opCallFrameCFA}, regsFixture(1000, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1016), fb)
}

func TestFrameBaseFromExprReg(t *testing.T) {
	// DW_OP_reg6: frame base is RBP's value directly.
	fb, err := FrameBaseFromExpr([]byte{opReg0 + 6}, regsFixture(2000, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), fb)
}

func TestDecodeSLEB128Negative(t *testing.T) {
	v, n, err := decodeSLEB128([]byte{0x78})
	require.NoError(t, err)
	assert.Equal(t, int64(-8), v)
	assert.Equal(t, 1, n)
}

func TestDecodeULEB128Multibyte(t *testing.T) {
	// 300 = 0b100101100 -> ULEB128 bytes 0xAC 0x02
	v, n, err := decodeULEB128([]byte{0xAC, 0x02})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), v)
	assert.Equal(t, 2, n)
}
