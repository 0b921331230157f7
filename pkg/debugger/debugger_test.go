package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackium/stackium/pkg/proc"
	"github.com/stackium/stackium/pkg/stackerr"
)

func TestRequireLiveBeforeTerminal(t *testing.T) {
	d := &Debugger{}
	assert.NoError(t, d.requireLive())
}

func TestRequireLiveAfterTerminal(t *testing.T) {
	d := &Debugger{terminal: true}
	assert.ErrorIs(t, d.requireLive(), stackerr.ErrTraceeGone)
}

func TestObserveMarksTerminalOnExit(t *testing.T) {
	d := &Debugger{}
	sr, err := d.observe(proc.StopReason{Kind: proc.StopExited, ExitCode: 0}, nil)
	assert.NoError(t, err)
	assert.Equal(t, proc.StopExited, sr.Kind)
	assert.True(t, d.terminal)
}

func TestObserveMarksTerminalOnTerminated(t *testing.T) {
	d := &Debugger{}
	_, err := d.observe(proc.StopReason{Kind: proc.StopTerminated, Signal: 9}, nil)
	assert.NoError(t, err)
	assert.True(t, d.terminal)
}

func TestObserveLeavesLiveOnTrap(t *testing.T) {
	d := &Debugger{}
	_, err := d.observe(proc.StopReason{Kind: proc.StopTrap}, nil)
	assert.NoError(t, err)
	assert.False(t, d.terminal)
}

func TestObserveMarksTerminalOnError(t *testing.T) {
	d := &Debugger{}
	_, err := d.observe(proc.StopReason{}, stackerr.ErrTraceeGone)
	assert.Error(t, err)
	assert.True(t, d.terminal, "an error from the tracee should be treated as fatal to the session")
}
