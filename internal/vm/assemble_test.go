package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubTarget renders every operation as a single opcode-tagged line,
// enough to assert on the shape of generated code without depending on
// any concrete host backend.
type stubTarget struct{}

func (stubTarget) GetName() byte     { return 's' }
func (stubTarget) IsStandard() bool  { return false }
func (stubTarget) CorePrelude() string  { return "" }
func (stubTarget) CorePostlude() string { return "" }
func (stubTarget) Std() string          { return "" }

func (stubTarget) BeginEntryPoint(global, memory int) string {
	return fmt.Sprintf("ENTRY(%d,%d)\n", global, memory)
}
func (stubTarget) EndEntryPoint() string { return "ENDENTRY\n" }

func (stubTarget) Push(n float64) string { return fmt.Sprintf("PUSH %v\n", n) }
func (stubTarget) Add() string           { return "ADD\n" }
func (stubTarget) Sub() string           { return "SUB\n" }
func (stubTarget) Mul() string           { return "MUL\n" }
func (stubTarget) Div() string           { return "DIV\n" }

func (stubTarget) Allocate() string      { return "ALLOC\n" }
func (stubTarget) Free() string          { return "FREE\n" }
func (stubTarget) Store(size int) string { return fmt.Sprintf("STORE %d\n", size) }
func (stubTarget) Load(size int) string  { return fmt.Sprintf("LOAD %d\n", size) }

func (stubTarget) FnHeader(name string) string { return fmt.Sprintf("DECL %s\n", name) }
func (stubTarget) FnDefinition(name, body string) string {
	return fmt.Sprintf("FN %s {\n%s}\n", name, body)
}
func (stubTarget) CallFn(name string) string        { return fmt.Sprintf("CALL %s\n", name) }
func (stubTarget) CallForeignFn(name string) string { return fmt.Sprintf("FCALL %s\n", name) }

func (stubTarget) BeginWhile() string { return "WHILE {\n" }
func (stubTarget) EndWhile() string   { return "}\n" }

func (stubTarget) Compile(code string) error { return nil }

func TestAssembleSimpleMain(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("main", nil, VoidType(), []Statement{
			ExprStmt{Exprs: []Expression{FloatLit{Value: 42}}},
		}),
	}, 4)

	out, err := prog.Assemble(stubTarget{})
	require.NoError(t, err)
	require.Contains(t, out, "DECL fn0")
	require.Contains(t, out, "FN fn0 {")
	require.Contains(t, out, "PUSH 42")
	require.Contains(t, out, "ENTRY(0,4)")
	require.Contains(t, out, "CALL fn0")
}

func TestAssembleDefineAssignAccumulatesVarSize(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("main", []Arg{{Name: "x", Type: FloatType()}}, VoidType(), []Statement{
			Define{Name: "y", Type: FloatType()},
			Assign{Type: FloatType()},
			ExprStmt{Exprs: []Expression{Variable{Name: "x"}}},
		}),
	}, 0)

	out, err := prog.Assemble(stubTarget{})
	require.NoError(t, err)
	// x is argument 0 (address 0), y is defined next (address 1).
	require.Contains(t, out, "PUSH 0\n")
	require.Contains(t, out, "PUSH 1\n")
	require.Contains(t, out, "ENTRY(2,0)")
}

func TestAssembleStringLiteral(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("main", nil, VoidType(), []Statement{
			ExprStmt{Exprs: []Expression{StringLit{Value: "hi"}}},
		}),
	}, 0)

	out, err := prog.Assemble(stubTarget{})
	require.NoError(t, err)
	require.Contains(t, out, "PUSH 104") // 'h'
	require.Contains(t, out, "PUSH 105") // 'i'
	require.Contains(t, out, "PUSH 0\n") // NUL terminator
	require.Contains(t, out, "STORE 3")  // "hi" + NUL = 3 cells
}

func TestAssembleForLoop(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("main", nil, VoidType(), []Statement{
			For{
				Pre:  []Statement{Define{Name: "i", Type: FloatType()}, Assign{Type: FloatType()}},
				Cond: []Expression{Variable{Name: "i"}},
				Post: []Statement{ExprStmt{Exprs: []Expression{Add{}}}},
				Body: []Statement{ExprStmt{Exprs: []Expression{Alloc{}}}},
			},
		}),
	}, 0)

	out, err := prog.Assemble(stubTarget{})
	require.NoError(t, err)
	require.Contains(t, out, "WHILE {")
	require.Contains(t, out, "ALLOC")
	require.Contains(t, out, "ADD")
}

func TestAssembleMissingEntryPoint(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("helper", nil, VoidType(), nil),
	}, 0)

	_, err := prog.Assemble(stubTarget{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no main")
}

func TestAssembleUndefinedVariable(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("main", nil, VoidType(), []Statement{
			ExprStmt{Exprs: []Expression{Variable{Name: "missing"}}},
		}),
	}, 0)

	_, err := prog.Assemble(stubTarget{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestAssembleUndefinedFunction(t *testing.T) {
	prog := NewProgram([]Function{
		NewFunction("main", nil, VoidType(), []Statement{
			ExprStmt{Exprs: []Expression{Call{Name: "nope"}}},
		}),
	}, 0)

	_, err := prog.Assemble(stubTarget{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}
