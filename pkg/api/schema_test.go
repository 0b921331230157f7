package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSchemaIsValidJSONWithEveryCommand(t *testing.T) {
	var doc struct {
		Schema string           `json:"$schema"`
		Title  string           `json:"title"`
		OneOf  []map[string]any `json:"oneOf"`
	}
	require.NoError(t, json.Unmarshal(RequestSchema(), &doc))
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", doc.Schema)
	assert.Len(t, doc.OneOf, len(commandTags))
}

func TestResponseSchemaIsValidJSON(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(ResponseSchema(), &doc))
	assert.Equal(t, "object", doc["type"])
}

func TestRequestSchemaYAMLRoundTrips(t *testing.T) {
	y, err := RequestSchemaYAML()
	require.NoError(t, err)
	assert.Contains(t, string(y), "stackium command request")
}
