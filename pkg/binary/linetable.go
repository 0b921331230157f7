package binary

import (
	"debug/dwarf"
	"path/filepath"
	"sort"

	"github.com/stackium/stackium/pkg/stackerr"
)

// loadLineTable decodes the DWARF line number program for cu into a
// sorted sequence of address rows, using the standard library's own
// DWARF4 line program decoder (debug/dwarf.LineReader). Re-deriving the
// line-number state machine by hand, as delve's internal pkg/dwarf/line
// does for Go's bespoke needs, would just reimplement what the
// standard library already parses correctly for a plain DWARF4
// producer; see DESIGN.md.
func (b *Binary) loadLineTable(cu *compileUnit) error {
	lr, err := b.dwarf.LineReader(cu.entry)
	if err != nil {
		return err
	}
	if lr == nil {
		return nil
	}
	var entry dwarf.LineEntry
	for {
		err := lr.Next(&entry)
		if err != nil {
			break
		}
		if entry.EndSequence {
			continue
		}
		cu.lines = append(cu.lines, lineRow{
			Address: entry.Address,
			File:    fileName(entry.File),
			Line:    entry.Line,
			Column:  entry.Column,
			IsStmt:  entry.IsStmt,
		})
	}
	sort.Slice(cu.lines, func(i, j int) bool { return cu.lines[i].Address < cu.lines[j].Address })
	return nil
}

func fileName(f *dwarf.LineFile) string {
	if f == nil {
		return ""
	}
	return f.Name
}

// fileName returns the decoded DWARF line-table file path for fileIdx
// within cu, used to resolve DW_AT_decl_file indices.
func (b *Binary) fileName(cu *compileUnit, fileIdx int64) string {
	lr, err := b.dwarf.LineReader(cu.entry)
	if err != nil || lr == nil {
		return ""
	}
	files := lr.Files()
	if fileIdx < 0 || int(fileIdx) >= len(files) || files[fileIdx] == nil {
		return ""
	}
	return files[fileIdx].Name
}

// LineToAddress implements §4.1's line_to_address: among all rows
// whose file matches filename by basename equality and whose line
// equals the target, returns the smallest address whose IsStmt is
// true; if none is a statement row, the smallest address of any
// matching row. Returns ErrLineNotFound otherwise.
func (b *Binary) LineToAddress(filename string, line int) (uint64, error) {
	base := filepath.Base(filename)
	var best uint64
	var bestStmt uint64
	haveBest, haveStmt := false, false
	for _, cu := range b.cus {
		for _, row := range cu.lines {
			if row.Line != line || filepath.Base(row.File) != base {
				continue
			}
			if !haveBest || row.Address < best {
				best, haveBest = row.Address, true
			}
			if row.IsStmt && (!haveStmt || row.Address < bestStmt) {
				bestStmt, haveStmt = row.Address, true
			}
		}
	}
	if haveStmt {
		return bestStmt, nil
	}
	if haveBest {
		return best, nil
	}
	return 0, stackerr.ErrLineNotFound
}

// SourceLine is a resolved (file, line, column) position.
type SourceLine struct {
	File   string
	Line   int
	Column int
}

// AddressToLine implements §4.1's address_to_line: the largest row
// address <= pc within the same function's compile unit. Returns
// ErrLineNotFound if pc is outside any known compile unit range.
func (b *Binary) AddressToLine(pc uint64) (SourceLine, error) {
	fn, err := b.FindFunctionContaining(pc)
	if err != nil {
		return SourceLine{}, stackerr.ErrLineNotFound
	}
	rows := fn.CU.lines
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Address > pc })
	if i == 0 {
		return SourceLine{}, stackerr.ErrLineNotFound
	}
	row := rows[i-1]
	return SourceLine{File: row.File, Line: row.Line, Column: row.Column}, nil
}

// PostPrologueAddress returns the address of the first is_stmt line
// row strictly inside fn's range, the conventional post-prologue
// breakpoint address from §4.4. The second return value is false when
// the line table has no such row, signaling the caller to fall back
// to prologue byte-pattern detection.
func (b *Binary) PostPrologueAddress(fn *Function) (uint64, bool) {
	if fn.CU == nil {
		return 0, false
	}
	for _, row := range fn.CU.lines {
		if row.Address > fn.LowPC && row.Address < fn.HighPC && row.IsStmt {
			return row.Address, true
		}
	}
	return 0, false
}

// Sources returns every source file path referenced by the debug
// information, deduplicated and sorted.
func (b *Binary) Sources() []string {
	seen := map[string]bool{}
	var out []string
	for _, cu := range b.cus {
		for _, row := range cu.lines {
			if row.File == "" || seen[row.File] {
				continue
			}
			seen[row.File] = true
			out = append(out, row.File)
		}
	}
	sort.Strings(out)
	return out
}
