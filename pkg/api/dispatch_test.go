package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackium/stackium/pkg/stackerr"
)

func TestDispatchUnknownCommand(t *testing.T) {
	d := &Dispatcher{}
	resp := d.Dispatch(Command{Command: "NotACommand"})
	assert.Equal(t, "MalformedRequest", resp.Error)
	assert.Nil(t, resp.Result)
}

func TestUnmarshalArgEmptyIsValid(t *testing.T) {
	var arg ReadArg
	err := unmarshalArg(nil, &arg)
	require.NoError(t, err)
	assert.Zero(t, arg)
}

func TestUnmarshalArgDecodesKnownShape(t *testing.T) {
	raw, err := json.Marshal(ReadArg{Address: 0x1000, Length: 8})
	require.NoError(t, err)

	var arg ReadArg
	require.NoError(t, unmarshalArg(raw, &arg))
	assert.Equal(t, uint64(0x1000), arg.Address)
	assert.Equal(t, 8, arg.Length)
}

func TestUnmarshalArgMalformedJSON(t *testing.T) {
	var arg ReadArg
	err := unmarshalArg([]byte("{not json"), &arg)
	assert.ErrorIs(t, err, stackerr.ErrMalformedRequest)
}
