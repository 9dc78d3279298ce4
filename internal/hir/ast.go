// Package hir implements the HIR layer: compile-time constant evaluation,
// assertions, conditional compilation (If/IfElse gated on constants, not
// runtime values), and include/extern resolution relative to a working
// directory (spec §4.4).
//
// Grounded on original_source/src/hir.rs, which this package ports
// declaration for declaration.
package hir

import (
	"github.com/stackc-go/stackc/internal/mir"
	"github.com/stackc-go/stackc/internal/types"
)

// Type is the HIR surface type, distinct from types.Type only in that a
// pointer is represented recursively (Pointer(inner)) the way the parser
// naturally builds it, rather than via a flat PtrLevel counter.
type Type interface{ implHirType() }

type TPointer struct{ Inner Type }
type TVoid struct{}
type TFloat struct{}
type TBool struct{}
type TChar struct{}
type TStructure struct{ Name string }

func (TPointer) implHirType()   {}
func (TVoid) implHirType()      {}
func (TFloat) implHirType()     {}
func (TBool) implHirType()      {}
func (TChar) implHirType()      {}
func (TStructure) implHirType() {}

// ToMIRType lowers a surface HIR type to the flat-pointer-level
// representation shared by MIR (spec §3).
func ToMIRType(t Type) types.Type {
	switch t := t.(type) {
	case TPointer:
		return ToMIRType(t.Inner).Pointer()
	case TVoid:
		return types.Void()
	case TFloat:
		return types.Num()
	case TBool:
		return types.Bool()
	case TChar:
		return types.Char()
	case TStructure:
		return types.Structure(t.Name)
	default:
		return types.Void()
	}
}

// Program is a sequence of declarations plus the heap size reserved after
// the statically-addressed variable region.
type Program struct {
	Decls    []Declaration
	HeapSize int
}

// Declaration is one top-level HIR declaration.
type Declaration interface{ implHirDeclaration() }

type ConstDecl struct {
	Name  string
	Value Constant
}
type FuncDecl struct{ Func Function }
type StructDecl struct{ Struct Structure }
type AssertDecl struct{ Cond Constant }

// IfDecl/IfElseDecl gate a nested sub-program's declarations on a
// compile-time constant, implementing conditional compilation (spec §4.4:
// e.g. `if TARGET == 'c' { ... }`). Unlike MIR's If/IfElse, these are
// resolved entirely at HIR-compile time; only the selected branch's
// declarations ever reach MIR.
type IfDecl struct {
	Cond Constant
	Body Program
}
type IfElseDecl struct {
	Cond     Constant
	ThenBody Program
	ElseBody Program
}

type ErrorDecl struct{ Message string }
type ExternDecl struct{ Filename string }
type IncludeDecl struct{ Filename string }
type HeapSizeDecl struct{ Size int }
type RequireStdDecl struct{}
type NoStdDecl struct{}

func (ConstDecl) implHirDeclaration()      {}
func (FuncDecl) implHirDeclaration()       {}
func (StructDecl) implHirDeclaration()     {}
func (AssertDecl) implHirDeclaration()     {}
func (IfDecl) implHirDeclaration()         {}
func (IfElseDecl) implHirDeclaration()     {}
func (ErrorDecl) implHirDeclaration()      {}
func (ExternDecl) implHirDeclaration()     {}
func (IncludeDecl) implHirDeclaration()    {}
func (HeapSizeDecl) implHirDeclaration()   {}
func (RequireStdDecl) implHirDeclaration() {}
func (NoStdDecl) implHirDeclaration()      {}

// Structure is a named aggregate. tir fills Size with the sum of the
// member sizes; lowering to MIR does not read it, since mir derives every
// structure's size from its Members.
type Structure struct {
	Name    string
	Size    Constant
	Members []mir.Member
	Methods []Function
}

// Function is a HIR function or structure method.
type Function struct {
	Name       string
	Args       []Param
	ReturnType Type
	Body       []Statement
}

// Param is one named, typed function parameter.
type Param struct {
	Name string
	Type Type
}

// Statement is one HIR statement. It is an alias of mir.Statement: HIR
// and MIR share one statement set, and HIR function bodies pass to MIR
// unchanged.
type Statement = mir.Statement
