package binary

import (
	"debug/dwarf"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// Kind tags the variant held by a TypeDescriptor.
type Kind int

const (
	KindVoid Kind = iota
	KindBase
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindEnum
	KindTypedef
	KindConst
	KindVolatile
	KindSubroutine
)

// Encoding is the DW_ATE_* encoding of a base type.
type Encoding int

const (
	EncodingSigned Encoding = iota
	EncodingUnsigned
	EncodingFloat
	EncodingChar
	EncodingBool
	EncodingAddress
)

// Member is one field of a Struct or Union TypeDescriptor.
type Member struct {
	Name   string
	Offset int64
	Type   *TypeDescriptor
}

// EnumVariant is one named constant of an Enum TypeDescriptor.
type EnumVariant struct {
	Name  string
	Value int64
}

// TypeDescriptor is the tagged sum described in §3: a DWARF type
// resolved to a concrete size/layout tree. Pointer and Typedef/Const/
// Volatile targets are stored as DIE-offset handles and materialized
// lazily through the owning Binary's resolver, which breaks cycles
// like `struct Node { Node *next; }` by memoizing on DIE offset.
type TypeDescriptor struct {
	Kind Kind
	Name string
	Size int64

	// Base
	Encoding Encoding

	// Pointer, Typedef, Const, Volatile, Array element
	targetOffset dwarf.Offset
	hasTarget    bool
	resolver     *typeResolver

	// Array
	Count int64

	// Struct, Union
	Members []Member

	// Enum
	Variants []EnumVariant
}

// Target materializes the referenced type of a Pointer, Typedef,
// Const, Volatile or Array TypeDescriptor on demand.
func (t *TypeDescriptor) Target() (*TypeDescriptor, error) {
	if !t.hasTarget {
		return &TypeDescriptor{Kind: KindVoid}, nil
	}
	return t.resolver.resolve(t.targetOffset)
}

// Unwrap strips Typedef/Const/Volatile wrappers and returns the first
// concrete underlying type.
func (t *TypeDescriptor) Unwrap() (*TypeDescriptor, error) {
	cur := t
	for cur.Kind == KindTypedef || cur.Kind == KindConst || cur.Kind == KindVolatile {
		next, err := cur.Target()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// typeResolver resolves DIE offsets to TypeDescriptors, memoizing by
// offset so cyclic type graphs terminate and repeated lookups are
// cheap. Backed by an LRU cache (bounded, unlike a plain map) the way
// delve bounds its own long-lived caches for multi-hour sessions.
type typeResolver struct {
	data  *dwarf.Data
	cache *lru.Cache
}

func newTypeResolver(data *dwarf.Data) *typeResolver {
	c, _ := lru.New(4096)
	return &typeResolver{data: data, cache: c}
}

// ResolveType resolves the DWARF type at offset to a TypeDescriptor,
// per §4.1's resolve_type.
func (b *Binary) ResolveType(offset dwarf.Offset) (*TypeDescriptor, error) {
	return b.resolver.resolve(offset)
}

func (r *typeResolver) resolve(offset dwarf.Offset) (*TypeDescriptor, error) {
	if v, ok := r.cache.Get(offset); ok {
		return v.(*TypeDescriptor), nil
	}
	// Insert a placeholder before recursing so a cycle through this
	// offset finds a stable (if incomplete) target instead of looping.
	placeholder := &TypeDescriptor{resolver: r}
	r.cache.Add(offset, placeholder)

	dt, err := r.data.Type(offset)
	if err != nil {
		return nil, fmt.Errorf("resolving type at %#x: %w", offset, err)
	}
	td, err := r.fromDwarfType(dt)
	if err != nil {
		return nil, err
	}
	*placeholder = *td
	placeholder.resolver = r
	r.cache.Add(offset, placeholder)
	return placeholder, nil
}

func (r *typeResolver) fromDwarfType(dt dwarf.Type) (*TypeDescriptor, error) {
	switch t := dt.(type) {
	case *dwarf.CharType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingChar, resolver: r}, nil
	case *dwarf.UcharType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingChar, resolver: r}, nil
	case *dwarf.BoolType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingBool, resolver: r}, nil
	case *dwarf.IntType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingSigned, resolver: r}, nil
	case *dwarf.UintType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingUnsigned, resolver: r}, nil
	case *dwarf.FloatType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingFloat, resolver: r}, nil
	case *dwarf.AddrType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingAddress, resolver: r}, nil
	case *dwarf.ComplexType:
		return &TypeDescriptor{Kind: KindBase, Name: t.Name, Size: t.Size(), Encoding: EncodingFloat, resolver: r}, nil
	case *dwarf.UnspecifiedType:
		return &TypeDescriptor{Kind: KindVoid, Name: t.Name, resolver: r}, nil
	case *dwarf.VoidType:
		return &TypeDescriptor{Kind: KindVoid, Name: "void", resolver: r}, nil

	case *dwarf.PtrType:
		td := &TypeDescriptor{Kind: KindPointer, Size: 8, resolver: r}
		if t.Type != nil {
			td.targetOffset, td.hasTarget = typeOffset(t.Type), true
		}
		return td, nil

	case *dwarf.ArrayType:
		td := &TypeDescriptor{Kind: KindArray, Size: t.ByteSize, Count: t.Count, resolver: r}
		if t.Type != nil {
			td.targetOffset, td.hasTarget = typeOffset(t.Type), true
		}
		return td, nil

	case *dwarf.StructType:
		td := &TypeDescriptor{Kind: KindStruct, Name: t.StructName, Size: t.ByteSize, resolver: r}
		if t.Kind == "union" {
			td.Kind = KindUnion
		}
		for _, f := range t.Field {
			m := Member{Name: f.Name, Offset: f.ByteOffset}
			if f.Type != nil {
				mt, err := r.resolve(typeOffset(f.Type))
				if err != nil {
					return nil, err
				}
				m.Type = mt
			}
			td.Members = append(td.Members, m)
		}
		return td, nil

	case *dwarf.EnumType:
		td := &TypeDescriptor{Kind: KindEnum, Name: t.EnumName, Size: 4, resolver: r}
		for _, v := range t.Val {
			td.Variants = append(td.Variants, EnumVariant{Name: v.Name, Value: v.Val})
		}
		return td, nil

	case *dwarf.TypedefType:
		td := &TypeDescriptor{Kind: KindTypedef, Name: t.Name, resolver: r}
		if t.Type != nil {
			td.targetOffset, td.hasTarget = typeOffset(t.Type), true
			td.Size = t.Type.Size()
		}
		return td, nil

	case *dwarf.QualType:
		td := &TypeDescriptor{resolver: r}
		switch t.Qual {
		case "const":
			td.Kind = KindConst
		case "volatile":
			td.Kind = KindVolatile
		default:
			td.Kind = KindConst
		}
		if t.Type != nil {
			td.targetOffset, td.hasTarget = typeOffset(t.Type), true
			td.Size = t.Type.Size()
		}
		return td, nil

	case *dwarf.FuncType:
		return &TypeDescriptor{Kind: KindSubroutine, Name: "func", resolver: r}, nil

	default:
		return &TypeDescriptor{Kind: KindVoid, Name: dt.String(), Size: dt.Size(), resolver: r}, nil
	}
}

// typeOffset extracts the DIE offset backing a debug/dwarf.Type so it
// can be re-resolved through the memoizing cache instead of held as a
// direct pointer (which would defeat cycle-breaking and duplicate
// struct trees across every member that shares a type).
func typeOffset(t dwarf.Type) dwarf.Offset {
	return t.Common().Offset
}
