package tir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/stackc-go/stackc/internal/hir"
)

func TestExpandMacroSubstitutesTypedArguments(t *testing.T) {
	decls := []Declaration{
		Macro{
			Name: "square",
			Params: []MacroParam{
				{Name: "x", Kind: KindExpression},
			},
			Body: ExprResult{Expr: Binary{Op: "*", Left: Var{Name: "x"}, Right: Var{Name: "x"}}},
		},
		FuncDecl{Func: Function{
			Name:       "main",
			ReturnType: TVoid{},
			Body: []Statement{
				Define{Name: "r", Type: TFloat{}, Init: MacroCallExpr{Call: MacroCall{
					Name: "square",
					Args: []MacroArg{{Kind: KindExpression, Expr: NumLit{Value: 3}}},
				}}},
			},
		}},
	}

	out, err := expandMacros(decls)
	require.NoError(t, err)
	require.Len(t, out, 1)
	fn := out[0].(FuncDecl).Func
	def := fn.Body[0].(Define)
	bin := def.Init.(Binary)
	require.Equal(t, "*", bin.Op)
	require.Equal(t, NumLit{Value: 3}, bin.Left)
	require.Equal(t, NumLit{Value: 3}, bin.Right)
}

func TestExpandMacroArityMismatch(t *testing.T) {
	defs := map[string]Macro{
		"noop": {Name: "noop", Params: nil, Body: StmtResult{Stmt: ExprStmt{Value: VoidLit{}}}},
	}
	call := MacroCall{Name: "noop", Args: []MacroArg{{Kind: KindExpression, Expr: NumLit{Value: 1}}}}
	_, err := expandCall(call, defs, 0)
	require.Error(t, err)
}

func TestExpandMacroUndefinedErrors(t *testing.T) {
	call := MacroCall{Name: "ghost"}
	_, err := expandCall(call, map[string]Macro{}, 0)
	require.Error(t, err)
}

func TestExpandMacroWrongArgKind(t *testing.T) {
	defs := map[string]Macro{
		"needs_ident": {
			Name:   "needs_ident",
			Params: []MacroParam{{Name: "n", Kind: KindIdentifier}},
			Body:   ExprResult{Expr: Var{Name: "n"}},
		},
	}
	call := MacroCall{Name: "needs_ident", Args: []MacroArg{{Kind: KindExpression, Expr: NumLit{Value: 1}}}}
	_, err := expandCall(call, defs, 0)
	require.Error(t, err)
}

func TestMovabilityDefaultsTrueForPlainStructure(t *testing.T) {
	structs := map[string]Structure{
		"Point": {Name: "Point", Members: []Member{{Name: "x", Type: TFloat{}}, {Name: "y", Type: TFloat{}}}},
	}
	mv, err := movable(structs)
	require.NoError(t, err)
	require.True(t, mv["Point"])
}

func TestMovabilityFalseWhenUserDefinesDrop(t *testing.T) {
	structs := map[string]Structure{
		"Handle": {Name: "Handle", HasDrop: true, Members: []Member{{Name: "fd", Type: TFloat{}}}},
	}
	mv, err := movable(structs)
	require.NoError(t, err)
	require.False(t, mv["Handle"])
}

func TestMovabilityPropagatesThroughNestedStructures(t *testing.T) {
	structs := map[string]Structure{
		"Handle": {Name: "Handle", HasDrop: true, Members: []Member{{Name: "fd", Type: TFloat{}}}},
		"Wrapper": {Name: "Wrapper", Members: []Member{
			{Name: "h", Type: TStructure{Name: "Handle"}},
		}},
		"PointerWrapper": {Name: "PointerWrapper", Members: []Member{
			{Name: "h", Type: TPointer{Inner: TStructure{Name: "Handle"}}},
		}},
	}
	mv, err := movable(structs)
	require.NoError(t, err)
	require.False(t, mv["Handle"])
	require.False(t, mv["Wrapper"], "embedding a non-movable structure by value must propagate")
	require.True(t, mv["PointerWrapper"], "a pointer member never affects movability")
}

func TestSynthesizeDefaultsAddsCopyAndDropToMovableStructure(t *testing.T) {
	structs := map[string]Structure{
		"Point": {Name: "Point", Members: []Member{{Name: "x", Type: TFloat{}}}},
	}
	mv, err := movable(structs)
	require.NoError(t, err)
	require.NoError(t, synthesizeDefaults(structs, mv))
	names := map[string]bool{}
	for _, m := range structs["Point"].Methods {
		names[m.Name] = true
	}
	require.True(t, names["copy"])
	require.True(t, names["drop"])
}

func TestSynthesizeDefaultsRejectsBadCopySignature(t *testing.T) {
	structs := map[string]Structure{
		"Handle": {
			Name:    "Handle",
			HasCopy: true,
			Members: []Member{{Name: "fd", Type: TFloat{}}},
			Methods: []Function{
				{Name: "copy", Params: []Param{{Name: "self", Type: TFloat{}}}, ReturnType: TStructure{Name: "Handle"}},
			},
		},
	}
	mv, err := movable(structs)
	require.NoError(t, err)
	require.Error(t, synthesizeDefaults(structs, mv))
}

func TestCheckNoExplicitCopyCallsRejectsDirectCopyCall(t *testing.T) {
	fn := Function{
		Name: "f",
		Body: []Statement{
			ExprStmt{Value: MethodCall{StructName: "Point", Recv: Var{Name: "p"}, Method: "copy"}},
		},
	}
	err := checkNoExplicitCopyCalls(fn)
	require.Error(t, err)
}

func TestDesugarCompoundAssign(t *testing.T) {
	fn := desugarFunc(Function{Body: []Statement{
		CompoundAssign{Op: "+", Target: Var{Name: "x"}, Value: NumLit{Value: 1}},
	}})
	assign := fn.Body[0].(Assign)
	bin := assign.Value.(Binary)
	require.Equal(t, "+", bin.Op)
	require.Equal(t, Var{Name: "x"}, bin.Left)
}

func TestDesugarComparisonBecomesCoreLibraryCall(t *testing.T) {
	fn := desugarFunc(Function{Body: []Statement{
		ExprStmt{Value: Binary{Op: "<", Left: Var{Name: "a"}, Right: Var{Name: "b"}}},
	}})
	expr := fn.Body[0].(ExprStmt).Value
	call := expr.(ForeignCall)
	require.Equal(t, "ok_lt", call.Name)
	require.Len(t, call.Args, 2)
}

func TestDesugarRangeForProducesClassicLoop(t *testing.T) {
	fn := desugarFunc(Function{Body: []Statement{
		RangeFor{Var: "i", Low: NumLit{Value: 0}, High: NumLit{Value: 10}, Body: []Statement{
			ExprStmt{Value: Var{Name: "i"}},
		}},
	}})
	forStmt := fn.Body[0].(For)
	def := forStmt.Init.(Define)
	require.Equal(t, "i", def.Name)
	cond := forStmt.Cond.(ForeignCall)
	require.Equal(t, "ok_lt", cond.Name)
}

func TestDesugarElseIfChainNestsCorrectly(t *testing.T) {
	fn := desugarFunc(Function{Body: []Statement{
		IfElseIf{
			Cond:     Var{Name: "a"},
			ThenBody: []Statement{ExprStmt{Value: NumLit{Value: 1}}},
			ElseIfs: []ElseIfClause{
				{Cond: Var{Name: "b"}, Body: []Statement{ExprStmt{Value: NumLit{Value: 2}}}},
			},
			ElseBody: []Statement{ExprStmt{Value: NumLit{Value: 3}}},
		},
	}})
	outer := fn.Body[0].(IfElseIf)
	require.Empty(t, outer.ElseIfs)
	inner := outer.ElseBody[0].(IfElseIf)
	require.Empty(t, inner.ElseIfs)
	require.Equal(t, Var{Name: "b"}, inner.Cond)
}

func TestCompileProducesHIRProgram(t *testing.T) {
	prog := &Program{
		Decls: []Declaration{
			FuncDecl{Func: Function{
				Name:       "main",
				ReturnType: TVoid{},
				Body: []Statement{
					Define{Name: "x", Type: TFloat{}, Init: NumLit{Value: 1}},
					ExprStmt{Value: Binary{Op: "<", Left: Var{Name: "x"}, Right: NumLit{Value: 2}}},
				},
			}},
		},
	}
	hirProg, err := prog.Compile()
	require.NoError(t, err)
	require.Len(t, hirProg.Decls, 1)
}

func TestCompileSynthesizesMovableCopyDrop(t *testing.T) {
	prog := &Program{
		Decls: []Declaration{
			StructDecl{Struct: Structure{
				Name:    "Point",
				Members: []Member{{Name: "x", Type: TFloat{}}, {Name: "y", Type: TFloat{}}},
			}},
		},
	}
	hirProg, err := prog.Compile()
	require.NoError(t, err)
	sd := hirProg.Decls[0].(hir.StructDecl)
	names := map[string]bool{}
	for _, m := range sd.Struct.Methods {
		names[m.Name] = true
	}
	require.True(t, names["copy"])
	require.True(t, names["drop"])
}

func TestCompileIsMovableConstant(t *testing.T) {
	prog := &Program{
		Decls: []Declaration{
			StructDecl{Struct: Structure{Name: "Point", Members: []Member{{Name: "x", Type: TFloat{}}}}},
			AssertDecl{Cond: CIsMovable{Type: TStructure{Name: "Point"}}},
		},
	}
	_, err := prog.Compile()
	require.NoError(t, err)
}

func TestResolveMethodCallsInfersReceiverStructName(t *testing.T) {
	structs := map[string]Structure{
		"Point": {
			Name:    "Point",
			Members: []Member{{Name: "x", Type: TFloat{}}},
			Methods: []Function{
				{Name: "len", Params: []Param{{Name: "self", Type: TPointer{Inner: TStructure{Name: "Point"}}}}, ReturnType: TFloat{}},
			},
		},
	}
	decls := []Declaration{
		FuncDecl{Func: Function{
			Name: "main",
			Params: []Param{
				{Name: "p", Type: TStructure{Name: "Point"}},
			},
			ReturnType: TVoid{},
			Body: []Statement{
				ExprStmt{Value: MethodCall{Recv: Var{Name: "p"}, Method: "len"}},
			},
		}},
	}

	require.NoError(t, resolveMethodCalls(decls, structs))

	fn := decls[0].(FuncDecl).Func
	got := fn.Body[0].(ExprStmt).Value.(MethodCall)
	want := MethodCall{StructName: "Point", Recv: Var{Name: "p"}, Method: "len"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved method call mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMethodCallsInfersThroughLetBinding(t *testing.T) {
	structs := map[string]Structure{
		"Point": {
			Name:    "Point",
			Members: []Member{{Name: "x", Type: TFloat{}}},
			Methods: []Function{
				{Name: "copy", Params: []Param{{Name: "self", Type: TPointer{Inner: TStructure{Name: "Point"}}}}, ReturnType: TStructure{Name: "Point"}},
			},
		},
	}
	decls := []Declaration{
		FuncDecl{Func: Function{
			Name:       "main",
			ReturnType: TVoid{},
			Body: []Statement{
				Define{Name: "p", Type: TStructure{Name: "Point"}},
				ExprStmt{Value: MethodCall{Recv: Refer{Value: Var{Name: "p"}}, Method: "copy"}},
			},
		}},
	}

	require.NoError(t, resolveMethodCalls(decls, structs))

	fn := decls[0].(FuncDecl).Func
	call := fn.Body[1].(ExprStmt).Value.(MethodCall)
	require.Equal(t, "Point", call.StructName)
}
