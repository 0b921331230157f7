package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackium/stackium/pkg/proc"
)

func TestToStopReasonTranslatesKind(t *testing.T) {
	cases := []struct {
		kind proc.StopKind
		want string
	}{
		{proc.StopTrap, "Trap"},
		{proc.StopSingleStep, "SingleStep"},
		{proc.StopSignal, "Signal"},
		{proc.StopExited, "Exited"},
		{proc.StopTerminated, "Terminated"},
	}
	for _, c := range cases {
		got := ToStopReason(proc.StopReason{Kind: c.kind})
		assert.Equal(t, c.want, got.Kind)
	}
}

func TestToStopReasonCarriesFields(t *testing.T) {
	got := ToStopReason(proc.StopReason{Kind: proc.StopTrap, AtBreakpoint: true})
	assert.True(t, got.AtBreakpoint)

	got = ToStopReason(proc.StopReason{Kind: proc.StopExited, ExitCode: 7})
	assert.Equal(t, 7, got.ExitCode)

	got = ToStopReason(proc.StopReason{Kind: proc.StopSignal, Signal: 11})
	assert.Equal(t, 11, got.Signal)
}
