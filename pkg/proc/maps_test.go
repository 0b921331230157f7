package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaps(t *testing.T) {
	data := []byte(
		"00400000-00401000 r-xp 00000000 08:01 1234  /bin/cat\n" +
			"00600000-00601000 rw-p 00000000 00:00 0\n" +
			"garbage line with no dash\n" +
			"7ffff7a00000-7ffff7a21000 r--p 00000000 08:01 5678  /lib/libc.so.6\n",
	)

	regions := parseMaps(data)
	require.Len(t, regions, 3)

	assert.Equal(t, uint64(0x400000), regions[0].Low)
	assert.Equal(t, uint64(0x401000), regions[0].High)
	assert.True(t, regions[0].Read)
	assert.False(t, regions[0].Write)
	assert.True(t, regions[0].Exec)
	assert.Equal(t, "/bin/cat", regions[0].Path)

	assert.Equal(t, uint64(0x600000), regions[1].Low)
	assert.True(t, regions[1].Write)
	assert.Empty(t, regions[1].Path)

	assert.Equal(t, "/lib/libc.so.6", regions[2].Path)
}

func TestParseMapsEmpty(t *testing.T) {
	assert.Nil(t, parseMaps(nil))
}
