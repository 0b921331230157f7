package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cosiner/argv"
	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/stackium/stackium/pkg/api"
)

// jsonCommand marshals arg as a Command's Argument payload.
func jsonCommand(tag string, arg any) (api.Command, error) {
	raw, err := json.Marshal(arg)
	if err != nil {
		return api.Command{}, err
	}
	return api.Command{Command: tag, Argument: raw}, nil
}

// CLI is the line-based REPL transport from §6's `cli` mode, grounded
// on delve's pkg/terminal: go-delve/liner drives line editing and
// history (no tab completer is installed), cosiner/argv tokenizes each line the way a shell would
// ("break main.c:12", "read 0x1000 8"), and go-colorable/go-isatty
// decide whether prompt output gets ANSI color.
type CLI struct {
	dispatch *api.Dispatcher
	line     *liner.State
	out      io.Writer
	color    bool
}

// NewCLI builds a REPL around dispatch, detecting TTY/color support on
// stdout the way delve's terminal package does before constructing its
// own writer.
func NewCLI(dispatch *api.Dispatcher) *CLI {
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return &CLI{
		dispatch: dispatch,
		line:     l,
		out:      colorable.NewColorableStdout(),
		color:    isTTY,
	}
}

// Close releases the underlying line editor.
func (c *CLI) Close() error { return c.line.Close() }

// Run drives the REPL until the user quits or EOF, mirroring delve's
// terminal command loop: read a line, tokenize it, dispatch the
// matching command, print the result.
func (c *CLI) Run() error {
	defer c.Close()
	for {
		input, err := c.line.Prompt("stackium> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		c.line.AppendHistory(input)

		cmd, err := c.parse(input)
		if err != nil {
			fmt.Fprintln(c.out, c.colorize("error: "+err.Error()))
			continue
		}
		resp := c.dispatch.Dispatch(cmd)
		if resp.Error != "" {
			fmt.Fprintln(c.out, c.colorize("error: "+resp.Error))
			continue
		}
		if resp.Result == nil {
			fmt.Fprintln(c.out, "ok")
			continue
		}
		fmt.Fprintf(c.out, "%v\n", resp.Result)
		if cmd.Command == "Quit" {
			return nil
		}
	}
}

func (c *CLI) colorize(s string) string {
	if !c.color {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}

// parse tokenizes a REPL line via cosiner/argv and maps the leading
// word (a short alias or the raw Command tag) to an api.Command.
func (c *CLI) parse(line string) (api.Command, error) {
	groups, err := argv.Argv([]rune(line), nil, nil)
	if err != nil || len(groups) == 0 || len(groups[0]) == 0 {
		return api.Command{}, fmt.Errorf("could not tokenize line")
	}
	tokens := groups[0]
	verb, rest := tokens[0], tokens[1:]

	tag, ok := cliAliases[verb]
	if !ok {
		tag = verb
	}

	switch tag {
	case "Read":
		if len(rest) < 1 {
			return api.Command{}, fmt.Errorf("usage: read <address> [length]")
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(rest[0], "0x"), 16, 64)
		if err != nil {
			return api.Command{}, fmt.Errorf("bad address %q", rest[0])
		}
		length := 8
		if len(rest) > 1 {
			if n, err := strconv.Atoi(rest[1]); err == nil {
				length = n
			}
		}
		return jsonCommand(tag, api.ReadArg{Address: addr, Length: length})

	case "SetBreakpoint":
		if len(rest) < 1 {
			return api.Command{}, fmt.Errorf("usage: break <name|0xaddr>")
		}
		if strings.HasPrefix(rest[0], "0x") {
			addr, err := strconv.ParseUint(rest[0][2:], 16, 64)
			if err != nil {
				return api.Command{}, fmt.Errorf("bad address %q", rest[0])
			}
			return jsonCommand(tag, api.BreakpointPointArg{Address: addr})
		}
		return jsonCommand(tag, api.BreakpointPointArg{Name: rest[0]})

	case "FindFunc":
		if len(rest) < 1 {
			return api.Command{}, fmt.Errorf("usage: findfunc <name>")
		}
		return jsonCommand(tag, api.FindFuncArg{Name: rest[0]})

	default:
		return api.Command{Command: tag}, nil
	}
}

// cliAliases maps short, shell-like verbs to their protocol tag, the
// way delve's terminal command table maps "c"/"continue" to the same
// RPC method.
var cliAliases = map[string]string{
	"c": "Continue", "continue": "Continue",
	"q": "Quit", "quit": "Quit", "exit": "Quit",
	"si": "StepInstruction", "stepi": "StepInstruction",
	"s": "StepIn", "step": "StepIn",
	"so": "StepOut", "stepout": "StepOut",
	"regs": "GetRegister",
	"pc":   "ProgramCounter",
	"read": "Read", "x": "Read",
	"findfunc": "FindFunc",
	"break":    "SetBreakpoint", "b": "SetBreakpoint",
	"breakpoints": "GetBreakpoints",
	"bt":          "Backtrace", "backtrace": "Backtrace",
	"vars": "ReadVariables", "locals": "ReadVariables",
	"list": "ViewSource",
	"meta": "DebugMeta",
	"dump": "DumpDwarf",
	"help": "Help", "h": "Help", "?": "Help",
}
