package api

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/stackium/stackium/pkg/stackerr"
)

// jsonSchema is a minimal draft-07 document shape, enough to describe
// the tagged-object request/response grammar of §6 without pulling in
// a full schema-generation library (the pack has none more idiomatic
// than hand-building the small, fixed shape this protocol needs).
type jsonSchema struct {
	Schema string           `json:"$schema"`
	Title  string           `json:"title"`
	OneOf  []map[string]any `json:"oneOf"`
}

// commandTags lists every command in §6's grammar table, in the same
// order the table documents them.
var commandTags = []string{
	"Continue", "Quit", "StepInstruction", "StepIn", "StepOut",
	"GetRegister", "ProgramCounter", "Read", "FindFunc", "FindLine",
	"Location", "ViewSource", "Backtrace", "ReadVariables",
	"SetBreakpoint", "GetBreakpoints", "DebugMeta", "DumpDwarf",
	"WaitPid", "Help",
}

// RequestSchema builds the draft-07 document describing every valid
// Command, for GET /schema.
func RequestSchema() []byte {
	s := jsonSchema{
		Schema: "http://json-schema.org/draft-07/schema#",
		Title:  "stackium command request",
	}
	for _, tag := range commandTags {
		s.OneOf = append(s.OneOf, map[string]any{
			"type": "object",
			"properties": map[string]any{
				"Command":  map[string]any{"const": tag},
				"Argument": map[string]any{},
			},
			"required": []string{"Command"},
		})
	}
	b, _ := json.MarshalIndent(s, "", "  ")
	return b
}

// ResponseSchema builds the draft-07 document describing the Response
// envelope, for GET /response_schema.
func ResponseSchema() []byte {
	s := map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   "stackium command response",
		"type":    "object",
		"properties": map[string]any{
			"Result": map[string]any{},
			"Error":  map[string]any{"type": "string"},
		},
	}
	b, _ := json.MarshalIndent(s, "", "  ")
	return b
}

// RequestSchemaYAML round-trips RequestSchema through yaml.v3, for
// editors that prefer a YAML schema document (GET /schema.yaml, per
// SPEC_FULL.md's domain-stack wiring of gopkg.in/yaml.v3).
func RequestSchemaYAML() ([]byte, error) {
	var generic any
	if err := json.Unmarshal(RequestSchema(), &generic); err != nil {
		return nil, stackerr.ErrSchemaError
	}
	return yaml.Marshal(generic)
}
