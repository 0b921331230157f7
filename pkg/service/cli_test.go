package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackium/stackium/pkg/api"
)

func TestParseAliasContinue(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("c")
	require.NoError(t, err)
	assert.Equal(t, "Continue", cmd.Command)
}

func TestParseAliasLongForm(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("continue")
	require.NoError(t, err)
	assert.Equal(t, "Continue", cmd.Command)
}

func TestParseReadWithDefaultLength(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("read 0x1000")
	require.NoError(t, err)
	assert.Equal(t, "Read", cmd.Command)

	var arg api.ReadArg
	require.NoError(t, json.Unmarshal(cmd.Argument, &arg))
	assert.Equal(t, uint64(0x1000), arg.Address)
	assert.Equal(t, 8, arg.Length)
}

func TestParseReadWithExplicitLength(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("x 0x2000 16")
	require.NoError(t, err)

	var arg api.ReadArg
	require.NoError(t, json.Unmarshal(cmd.Argument, &arg))
	assert.Equal(t, uint64(0x2000), arg.Address)
	assert.Equal(t, 16, arg.Length)
}

func TestParseReadMissingAddress(t *testing.T) {
	c := &CLI{}
	_, err := c.parse("read")
	assert.Error(t, err)
}

func TestParseBreakByName(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("b main")
	require.NoError(t, err)
	assert.Equal(t, "SetBreakpoint", cmd.Command)

	var arg api.BreakpointPointArg
	require.NoError(t, json.Unmarshal(cmd.Argument, &arg))
	assert.Equal(t, "main", arg.Name)
	assert.Zero(t, arg.Address)
}

func TestParseBreakByAddress(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("break 0x4010")
	require.NoError(t, err)

	var arg api.BreakpointPointArg
	require.NoError(t, json.Unmarshal(cmd.Argument, &arg))
	assert.Equal(t, uint64(0x4010), arg.Address)
	assert.Empty(t, arg.Name)
}

func TestParseUnknownVerbPassesThroughAsTag(t *testing.T) {
	c := &CLI{}
	cmd, err := c.parse("Backtrace")
	require.NoError(t, err)
	assert.Equal(t, "Backtrace", cmd.Command)
}

func TestParseEmptyLine(t *testing.T) {
	c := &CLI{}
	_, err := c.parse("")
	assert.Error(t, err)
}

func TestColorizeWrapsOnlyWhenEnabled(t *testing.T) {
	plain := &CLI{color: false}
	assert.Equal(t, "hello", plain.colorize("hello"))

	colored := &CLI{color: true}
	assert.Contains(t, colored.colorize("hello"), "hello")
	assert.NotEqual(t, "hello", colored.colorize("hello"))
}
