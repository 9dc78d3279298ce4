// Package types defines the nominal type representation shared, structurally
// unchanged, across TIR, HIR, and MIR (spec §3).
package types

import "fmt"

// Prim is a primitive type tag.
type Prim int

const (
	PrimVoid Prim = iota
	PrimNum
	PrimChar
	PrimBool
	PrimStruct // sentinel: Type.Name holds the structure name instead
)

func (p Prim) String() string {
	switch p {
	case PrimVoid:
		return "void"
	case PrimNum:
		return "num"
	case PrimChar:
		return "char"
	case PrimBool:
		return "bool"
	case PrimStruct:
		return "struct"
	default:
		return "?"
	}
}

// Type is either a primitive or a named structure, optionally wrapped in
// one or more pointer layers (PtrLevel).
type Type struct {
	Prim     Prim
	Name     string // structure name, only meaningful when Prim == PrimStruct
	PtrLevel int
}

// Void returns the void primitive type.
func Void() Type { return Type{Prim: PrimVoid} }

// Num returns the num primitive type.
func Num() Type { return Type{Prim: PrimNum} }

// Char returns the char primitive type.
func Char() Type { return Type{Prim: PrimChar} }

// Bool returns the bool primitive type.
func Bool() Type { return Type{Prim: PrimBool} }

// Structure returns the named structure type.
func Structure(name string) Type { return Type{Prim: PrimStruct, Name: name} }

// Pointer returns t with one additional pointer layer.
func (t Type) Pointer() Type {
	return Type{Prim: t.Prim, Name: t.Name, PtrLevel: t.PtrLevel + 1}
}

// Refer always succeeds: spec-mandated alias for Pointer.
func (t Type) Refer() Type { return t.Pointer() }

// Deref removes one pointer layer. Defined only for PtrLevel >= 1.
func (t Type) Deref() (Type, error) {
	if t.PtrLevel < 1 {
		return Type{}, fmt.Errorf("cannot dereference non-pointer type %s", t)
	}
	return Type{Prim: t.Prim, Name: t.Name, PtrLevel: t.PtrLevel - 1}, nil
}

// DerefAll strips every pointer layer, used by method resolution
// (typeof(recv).deref*()).
func (t Type) DerefAll() Type {
	return Type{Prim: t.Prim, Name: t.Name, PtrLevel: 0}
}

// IsVoidPointer reports whether t is a single-level pointer to void.
func (t Type) IsVoidPointer() bool {
	return t.PtrLevel == 1 && t.Prim == PrimVoid && t.Name == ""
}

// IsPointer reports whether t has at least one pointer layer.
func (t Type) IsPointer() bool { return t.PtrLevel > 0 }

// IsStructure reports whether the base (non-pointer) type is a named
// structure.
func (t Type) IsStructure() bool { return t.Prim == PrimStruct }

// numCharEquivalent reports whether a and b are implicitly equivalent
// primitives under spec §3's num<->char rule.
func numCharEquivalent(a, b Type) bool {
	isNC := func(t Type) bool { return t.Prim == PrimNum || t.Prim == PrimChar }
	return isNC(a) && isNC(b)
}

// Equal implements the MIR type-equality rule from spec §3:
//
//	(a) names and ptr levels match, or
//	(b) both non-pointer and pairwise in {num, char}, or
//	(c) both single-level pointers and EITHER side is &void (made
//	    symmetric per spec §9's Design Notes — the source's comment
//	    claims symmetry the code doesn't implement; this port honors
//	    the comment).
func (a Type) Equal(b Type) bool {
	if a.PtrLevel == 1 && b.PtrLevel == 1 && (a.IsVoidPointer() || b.IsVoidPointer()) {
		return true
	}
	if a.PtrLevel != b.PtrLevel {
		return false
	}
	if a.Prim == PrimStruct || b.Prim == PrimStruct {
		return a.Prim == PrimStruct && b.Prim == PrimStruct && a.Name == b.Name
	}
	if a.PtrLevel > 0 {
		return a.Prim == b.Prim
	}
	if a.Prim == b.Prim {
		return true
	}
	return numCharEquivalent(a, b)
}

// String renders the type the way source code would spell it.
func (t Type) String() string {
	base := t.Name
	if t.Prim != PrimStruct {
		base = t.Prim.String()
	}
	for i := 0; i < t.PtrLevel; i++ {
		base = "&" + base
	}
	return base
}

// SizeOf computes a type's size in stack-VM cells. structSizes supplies the
// already-computed size of every named structure (spec §3: "structure size
// is the sum of member sizes, computed at HIR-time from a compile-time
// constant").
func (t Type) SizeOf(structSizes map[string]int) int {
	if t.PtrLevel > 0 {
		return 1
	}
	switch t.Prim {
	case PrimVoid:
		return 0
	case PrimNum, PrimChar, PrimBool:
		return 1
	case PrimStruct:
		return structSizes[t.Name]
	default:
		return 0
	}
}
