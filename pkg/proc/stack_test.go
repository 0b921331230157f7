package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLe64(t *testing.T) {
	assert.Equal(t, uint64(0), le64(nil))
	assert.Equal(t, uint64(0), le64([]byte{1, 2, 3}))
	assert.Equal(t, uint64(0x0807060504030201), le64([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
}

func TestFrameStringWithSourceLine(t *testing.T) {
	f := Frame{PC: 0x401136, File: "main.c", Line: 12}
	assert.Equal(t, "0x0000000000401136 in ?? at main.c:12", f.String())
}

func TestFrameStringWithoutSourceLine(t *testing.T) {
	f := Frame{PC: 0x401136}
	assert.Equal(t, "0x0000000000401136 in ??", f.String())
}
