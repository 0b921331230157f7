package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// newFixtureManager builds a BreakpointManager with a pre-populated
// table, bypassing Set (which requires a live tracee to read the
// original byte from) since these tests only exercise pure bookkeeping.
func newFixtureManager(bps ...*Breakpoint) *BreakpointManager {
	m := newBreakpointManager(nil)
	for _, bp := range bps {
		m.byAddr[bp.Addr] = bp
	}
	return m
}

func TestBreakpointManagerListSortedByAddress(t *testing.T) {
	m := newFixtureManager(
		&Breakpoint{Addr: 0x2000, Enabled: true},
		&Breakpoint{Addr: 0x1000, Enabled: true},
		&Breakpoint{Addr: 0x3000, Enabled: true},
	)
	list := m.List()
	assert.Equal(t, []uint64{0x1000, 0x2000, 0x3000}, []uint64{list[0].Addr, list[1].Addr, list[2].Addr})
}

func TestBreakpointManagerAtOnlyReturnsEnabled(t *testing.T) {
	m := newFixtureManager(
		&Breakpoint{Addr: 0x1000, Enabled: true},
		&Breakpoint{Addr: 0x2000, Enabled: false},
	)

	bp, ok := m.At(0x1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1000), bp.Addr)

	_, ok = m.At(0x2000)
	assert.False(t, ok, "a disarmed (mid-step-over) breakpoint should not report as active")

	_, ok = m.At(0x9999)
	assert.False(t, ok)
}

func TestBreakpointManagerListEmpty(t *testing.T) {
	m := newFixtureManager()
	assert.Empty(t, m.List())
}
