// Package binary implements the binary & DWARF loader: it parses the
// ELF file of the debuggee once at startup and indexes compile units,
// functions, line tables and in-scope variables so the rest of the
// engine never has to walk the DIE tree again. Grounded on delve's
// pkg/proc binary-info loading (compile unit indexing, function table,
// per-CU line programs) adapted for DWARF4 C binaries instead of Go
// runtime-aware DWARF.
package binary

import (
	"debug/dwarf"
	"debug/elf"
	"fmt"
	"sort"

	"github.com/derekparker/trie"

	"github.com/stackium/stackium/pkg/logflags"
	"github.com/stackium/stackium/pkg/stackerr"
)

// supportedDwarfVersion is the only DWARF version stackium understands,
// per the debuggee contract in §6: -gdwarf-4.
const supportedDwarfVersion = 4

// Function describes one DW_TAG_subprogram.
type Function struct {
	Name        string
	LowPC       uint64
	HighPC      uint64
	Prototyped  bool
	ReturnType  dwarf.Offset
	HasReturn   bool
	Params      []*Variable
	Locals      []*Variable
	CU          *compileUnit
	File        string
	Line        int
	FrameBase   []byte
	declOffset  dwarf.Offset
}

// Contains reports whether pc falls within the function's address range.
func (f *Function) Contains(pc uint64) bool {
	return pc >= f.LowPC && pc < f.HighPC
}

// lineRow is one row of a compile unit's decoded line program.
type lineRow struct {
	Address uint64
	File    string
	Line    int
	Column  int
	IsStmt  bool
}

type compileUnit struct {
	entry    *dwarf.Entry
	name     string
	compDir  string
	lowPC    uint64
	highPC   uint64
	lines    []lineRow // sorted by Address
	globals  []*Variable
}

// Binary is the immutable, parsed representation of the debuggee ELF
// file and its DWARF debug information. Created once at startup by
// Load and shared by reference across the engine.
type Binary struct {
	Path        string
	LoadAddress uint64 // zero, the debuggee is required to be -no-pie

	elf   *elf.File
	dwarf *dwarf.Data

	cus       []*compileUnit
	functions []*Function
	byName    map[string]*Function
	nameTrie  *trie.Trie

	resolver *typeResolver
}

// Load parses path as an ELF x86_64 binary and indexes its DWARF4
// debug information. It fails with ErrUnsupportedDwarfVersion if the
// binary was not compiled with -gdwarf-4.
func Load(path string) (*Binary, error) {
	log := logflags.DWARF()
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening elf file: %w", err)
	}
	if f.Machine != elf.EM_X86_64 {
		return nil, fmt.Errorf("unsupported machine %s: %w", f.Machine, stackerr.ErrUnsupportedDwarfVersion)
	}

	if err := checkDwarfVersion(f); err != nil {
		return nil, err
	}

	data, err := f.DWARF()
	if err != nil {
		return nil, fmt.Errorf("reading dwarf data: %w", err)
	}

	b := &Binary{
		Path:     path,
		elf:      f,
		dwarf:    data,
		byName:   map[string]*Function{},
		nameTrie: trie.New(),
	}
	b.resolver = newTypeResolver(data)

	if err := b.index(); err != nil {
		return nil, err
	}
	log.Debugf("loaded %s: %d functions, %d compile units", path, len(b.functions), len(b.cus))
	return b, nil
}

// index walks every compile unit once, building the function table,
// per-CU line tables and the global/variable-in-scope index.
func (b *Binary) index() error {
	rdr := b.dwarf.Reader()
	var cu *compileUnit
	var curFn *Function
	// depth is the DIE nesting depth of the current entry; fnDepth is the
	// depth of curFn's own DIE, so curFn is dropped once the walk leaves
	// that function's children.
	depth, fnDepth := 0, -1

	for {
		entry, err := rdr.Next()
		if err != nil {
			return fmt.Errorf("reading dwarf entries: %w", err)
		}
		if entry == nil {
			break
		}
		if entry.Tag == 0 {
			depth--
			continue
		}
		if curFn != nil && depth <= fnDepth {
			curFn, fnDepth = nil, -1
		}
		switch entry.Tag {
		case dwarf.TagCompileUnit:
			cu = &compileUnit{entry: entry}
			cu.name, _ = entry.Val(dwarf.AttrName).(string)
			cu.compDir, _ = entry.Val(dwarf.AttrCompDir).(string)
			if lowpc, ok := entry.Val(dwarf.AttrLowpc).(uint64); ok {
				cu.lowPC = lowpc
				if hi, ok := highpc(entry, lowpc); ok {
					cu.highPC = hi
				}
			}
			if err := b.loadLineTable(cu); err != nil {
				logflags.DWARF().Warnf("could not load line table for %s: %v", cu.name, err)
			}
			b.cus = append(b.cus, cu)
			curFn = nil

		case dwarf.TagSubprogram:
			name, _ := entry.Val(dwarf.AttrName).(string)
			if name == "" {
				break
			}
			lowpc, _ := entry.Val(dwarf.AttrLowpc).(uint64)
			hi, _ := highpc(entry, lowpc)
			fn := &Function{
				Name:       name,
				LowPC:      lowpc,
				HighPC:     hi,
				Prototyped: boolAttr(entry, dwarf.AttrPrototyped),
				CU:         cu,
				declOffset: entry.Offset,
			}
			if rt, ok := entry.Val(dwarf.AttrType).(dwarf.Offset); ok {
				fn.ReturnType = rt
				fn.HasReturn = true
			}
			if fb, ok := entry.Val(dwarf.AttrFrameBase).([]byte); ok {
				fn.FrameBase = fb
			}
			fn.File, fn.Line = b.declFileLine(cu, entry)
			b.functions = append(b.functions, fn)
			b.byName[name] = fn
			b.nameTrie.Add(name, nil)
			curFn, fnDepth = fn, depth

		case dwarf.TagFormalParameter, dwarf.TagVariable:
			v, ok := b.newVariableFromEntry(entry, cu, curFn)
			if !ok {
				break
			}
			if curFn != nil && entry.Tag == dwarf.TagFormalParameter {
				curFn.Params = append(curFn.Params, v)
			} else if curFn != nil {
				curFn.Locals = append(curFn.Locals, v)
			} else if cu != nil && depth == 1 {
				cu.globals = append(cu.globals, v)
			}
		}
		if entry.Children {
			depth++
		}
	}

	sort.Slice(b.functions, func(i, j int) bool { return b.functions[i].LowPC < b.functions[j].LowPC })
	return nil
}

// checkDwarfVersion reads the version halfword of the first compile
// unit header in .debug_info directly, since debug/dwarf.Data does not
// expose the per-CU DWARF version once parsed. The header layout is
// fixed by the standard: a 4-byte unit length followed by a 2-byte
// version, for both DWARF32 .debug_info and .zdebug_info.
func checkDwarfVersion(f *elf.File) error {
	sec := f.Section(".debug_info")
	if sec == nil {
		return fmt.Errorf("no .debug_info section: %w", stackerr.ErrUnsupportedDwarfVersion)
	}
	raw, err := sec.Data()
	if err != nil {
		return fmt.Errorf("reading .debug_info: %w", err)
	}
	if len(raw) < 6 {
		return fmt.Errorf("truncated .debug_info: %w", stackerr.ErrUnsupportedDwarfVersion)
	}
	version := uint16(raw[4]) | uint16(raw[5])<<8
	if version != supportedDwarfVersion {
		return fmt.Errorf("%w: got DWARF %d, want %d", stackerr.ErrUnsupportedDwarfVersion, version, supportedDwarfVersion)
	}
	return nil
}

func boolAttr(entry *dwarf.Entry, attr dwarf.Attr) bool {
	v, _ := entry.Val(attr).(bool)
	return v
}

func highpc(entry *dwarf.Entry, lowpc uint64) (uint64, bool) {
	switch v := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		// DW_FORM_addr: absolute address.
		return v, true
	case int64:
		// DW_FORM_dataN: offset from low PC.
		return lowpc + uint64(v), true
	default:
		return 0, false
	}
}

func (b *Binary) declFileLine(cu *compileUnit, entry *dwarf.Entry) (string, int) {
	line, _ := entry.Val(dwarf.AttrDeclLine).(int64)
	if cu == nil {
		return "", int(line)
	}
	fileIdx, ok := entry.Val(dwarf.AttrDeclFile).(int64)
	if !ok {
		return cu.name, int(line)
	}
	if name := b.fileName(cu, fileIdx); name != "" {
		return name, int(line)
	}
	return cu.name, int(line)
}

// FindFunctionByName returns the function named name, or
// ErrFunctionNotFound.
func (b *Binary) FindFunctionByName(name string) (*Function, error) {
	fn, ok := b.byName[name]
	if !ok {
		return nil, stackerr.ErrFunctionNotFound
	}
	return fn, nil
}

// FindFunctionContaining returns the function whose [LowPC,HighPC)
// range contains pc, or ErrFunctionNotFound.
func (b *Binary) FindFunctionContaining(pc uint64) (*Function, error) {
	i := sort.Search(len(b.functions), func(i int) bool { return b.functions[i].LowPC > pc })
	if i == 0 {
		return nil, stackerr.ErrFunctionNotFound
	}
	fn := b.functions[i-1]
	if !fn.Contains(pc) {
		return nil, stackerr.ErrFunctionNotFound
	}
	return fn, nil
}

// Functions returns every indexed function, sorted by entry address.
func (b *Binary) Functions() []*Function { return b.functions }

// MemberOffset is re-exported for the variable discovery package.
type MemberOffset = dwarf.Offset
