package debugger

import (
	"bufio"
	"fmt"
	"os"
)

// SourceWindow is a slice of source lines centered on the current
// line, the result of the ViewSource command.
type SourceWindow struct {
	File      string
	FirstLine int
	Lines     []string
	Current   int
}

// ViewSource implements the ViewSource command: a window of
// contextLines above and below the current source position.
func (d *Debugger) ViewSource(contextLines int) (SourceWindow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireLive(); err != nil {
		return SourceWindow{}, err
	}
	pc, err := d.proc.ProgramCounter()
	if err != nil {
		return SourceWindow{}, err
	}
	loc, err := d.bin.AddressToLine(pc)
	if err != nil {
		return SourceWindow{}, err
	}

	f, err := os.Open(loc.File)
	if err != nil {
		return SourceWindow{}, fmt.Errorf("opening source %s: %w", loc.File, err)
	}
	defer f.Close()

	first := loc.Line - contextLines
	if first < 1 {
		first = 1
	}
	last := loc.Line + contextLines

	sc := bufio.NewScanner(f)
	var lines []string
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo < first {
			continue
		}
		if lineNo > last {
			break
		}
		lines = append(lines, sc.Text())
	}
	return SourceWindow{File: loc.File, FirstLine: first, Lines: lines, Current: loc.Line}, nil
}
