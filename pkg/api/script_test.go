package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScriptReturnsResultGlobal(t *testing.T) {
	out, err := RunScript(nil, "result = 1 + 1")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestRunScriptNoResultGlobal(t *testing.T) {
	out, err := RunScript(nil, "x = 1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunScriptSyntaxError(t *testing.T) {
	_, err := RunScript(nil, "this is not starlark (")
	assert.Error(t, err)
}
