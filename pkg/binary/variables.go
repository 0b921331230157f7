package binary

import "debug/dwarf"

// Variable is an unresolved DWARF variable: a name, its type, its
// location expression and the PC range over which it is in scope.
// Binding it to a concrete address at a given PC produces a
// ResolvedVariable (see pkg/debugger).
type Variable struct {
	Name       string
	Function   *Function // nil for globals
	typeOffset dwarf.Offset
	hasType    bool
	Location   []byte // raw DW_AT_location expression bytes
	HasLoc     bool
	ScopeLow   uint64
	ScopeHigh  uint64
	File       string
	Line       int
}

// Type resolves the variable's DWARF type through the binary's
// memoizing type resolver.
func (v *Variable) Type(b *Binary) (*TypeDescriptor, error) {
	if !v.hasType {
		return &TypeDescriptor{Kind: KindVoid}, nil
	}
	return b.ResolveType(v.typeOffset)
}

func (b *Binary) newVariableFromEntry(entry *dwarf.Entry, cu *compileUnit, fn *Function) (*Variable, bool) {
	name, ok := entry.Val(dwarf.AttrName).(string)
	if !ok || name == "" {
		return nil, false
	}
	v := &Variable{Name: name, Function: fn}
	if t, ok := entry.Val(dwarf.AttrType).(dwarf.Offset); ok {
		v.typeOffset = t
		v.hasType = true
	}
	if loc, ok := entry.Val(dwarf.AttrLocation).([]byte); ok {
		v.Location = loc
		v.HasLoc = true
	}
	v.File, v.Line = b.declFileLine(cu, entry)

	if fn != nil {
		v.ScopeLow, v.ScopeHigh = fn.LowPC, fn.HighPC
		if lowpc, ok := entry.Val(dwarf.AttrLowpc).(uint64); ok {
			if hi, ok := highpc(entry, lowpc); ok {
				v.ScopeLow, v.ScopeHigh = lowpc, hi
			}
		}
	}
	return v, true
}

// VariablesInScope returns every variable (global or local) whose
// scope contains pc: globals are always in scope; a function's
// parameters and locals are in scope when pc falls within the owning
// function's [LowPC, HighPC) range. Per §4.6 this intentionally does
// not restrict locals to a tighter lexical block than the function,
// since stackium targets -O0 code where lexical-block scoping rarely
// narrows visibility in ways a student needs to see.
func (b *Binary) VariablesInScope(pc uint64) []*Variable {
	var out []*Variable
	for _, cu := range b.cus {
		out = append(out, cu.globals...)
	}
	fn, err := b.FindFunctionContaining(pc)
	if err != nil {
		return out
	}
	out = append(out, fn.Params...)
	out = append(out, fn.Locals...)
	return out
}
