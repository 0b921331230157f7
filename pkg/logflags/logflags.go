// Package logflags enables and disables the various flavors of logging
// supported by stackium, following the same named-logger convention as
// delve's pkg/logflags: a small set of subsystem loggers gated by a
// comma-separated --log-output flag, each a *logrus.Entry.
package logflags

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	DebuggerID = "debugger"
	DWARFID    = "dwarf"
	ProcID     = "proc"
	RPCID      = "rpc"
)

var (
	mu      sync.Mutex
	enabled = map[string]bool{}
	base    = logrus.New()
)

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetOutput(os.Stderr)
}

// Setup parses a comma-separated list of subsystem names (as accepted by
// the --log-output flag) and enables logging for each. logEnabled turns
// logging on or off wholesale; when false every logger below discards
// its output regardless of the selected subsystems.
func Setup(logEnabled bool, logOutput string) error {
	mu.Lock()
	defer mu.Unlock()
	enabled = map[string]bool{}
	if !logEnabled {
		return nil
	}
	if logOutput == "" {
		logOutput = DebuggerID
	}
	for _, v := range strings.Split(logOutput, ",") {
		v = strings.TrimSpace(v)
		switch v {
		case DebuggerID, DWARFID, ProcID, RPCID:
			enabled[v] = true
		default:
			return fmt.Errorf("unknown log output %q", v)
		}
	}
	return nil
}

func entry(id string) *logrus.Entry {
	mu.Lock()
	on := enabled[id]
	mu.Unlock()
	l := logrus.New()
	l.SetFormatter(base.Formatter)
	if on {
		l.SetOutput(os.Stderr)
	} else {
		l.SetOutput(io.Discard)
	}
	return l.WithField("layer", id)
}

// Debugger returns the logger for the top-level debugger engine.
func Debugger() *logrus.Entry { return entry(DebuggerID) }

// DWARF returns the logger for the binary/DWARF loader and type resolver.
func DWARF() *logrus.Entry { return entry(DWARFID) }

// Proc returns the logger for the ptrace process controller.
func Proc() *logrus.Entry { return entry(ProcID) }

// RPC returns the logger for the command dispatcher and transports.
func RPC() *logrus.Entry { return entry(RPCID) }
