package api

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/stackium/stackium/pkg/debugger"
)

// RunScript evaluates a small read-only Starlark snippet against dbg,
// the --script CLI mode hook from SPEC_FULL.md's domain stack (mirrors
// delve's own starlark scripting support). The snippet sees two
// builtins, pc() and read_variables(), both read-only: no breakpoint,
// step or memory-write primitive is exposed, since the hook is meant
// for inspection, not control.
func RunScript(dbg *debugger.Debugger, src string) (string, error) {
	thread := &starlark.Thread{Name: "stackium-script"}
	predeclared := starlark.StringDict{
		"pc": starlark.NewBuiltin("pc", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			pc, err := dbg.ProgramCounter()
			if err != nil {
				return nil, err
			}
			return starlark.MakeUint64(pc), nil
		}),
		"read_variables": starlark.NewBuiltin("read_variables", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			vars, err := dbg.ReadVariables()
			if err != nil {
				return nil, err
			}
			var list []starlark.Value
			for _, v := range vars {
				list = append(list, starlark.String(v.Name))
			}
			return starlark.NewList(list), nil
		}),
	}

	globals, err := starlark.ExecFile(thread, "script.star", src, predeclared)
	if err != nil {
		return "", fmt.Errorf("evaluating script: %w", err)
	}
	if result, ok := globals["result"]; ok {
		return result.String(), nil
	}
	return "", nil
}
