package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackc-go/stackc/internal/tir"
)

func TestParseSimpleFunction(t *testing.T) {
	prog, err := Parse(`
fn add(a: num, b: num) -> num {
	return a + b;
}
`)
	require.NoError(t, err)
	require.Len(t, prog.Decls, 1)

	fd := prog.Decls[0].(tir.FuncDecl)
	require.Equal(t, "add", fd.Func.Name)
	require.Equal(t, []tir.Param{{Name: "a", Type: tir.TFloat{}}, {Name: "b", Type: tir.TFloat{}}}, fd.Func.Params)
	require.Equal(t, tir.TFloat{}, fd.Func.ReturnType)
	require.Len(t, fd.Func.Body, 1)

	ret := fd.Func.Body[0].(tir.Return)
	bin := ret.Value.(tir.Binary)
	require.Equal(t, "+", bin.Op)
	require.Equal(t, tir.Var{Name: "a"}, bin.Left)
	require.Equal(t, tir.Var{Name: "b"}, bin.Right)
}

func TestParseStructWithMethod(t *testing.T) {
	prog, err := Parse(`
struct Point {
	x: num;
	y: num;

	fn len(self: &Point) -> num {
		return self.x;
	}
}
`)
	require.NoError(t, err)
	sd := prog.Decls[0].(tir.StructDecl)
	require.Equal(t, "Point", sd.Struct.Name)
	require.Len(t, sd.Struct.Members, 2)
	require.Len(t, sd.Struct.Methods, 1)
	require.Equal(t, "len", sd.Struct.Methods[0].Name)
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog, err := Parse(`
fn main() {
	let x = 1 + 2 * 3;
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	def := fn.Body[0].(tir.Define)
	top := def.Init.(tir.Binary)
	require.Equal(t, "+", top.Op)
	require.Equal(t, tir.NumLit{Value: 1}, top.Left)
	mul := top.Right.(tir.Binary)
	require.Equal(t, "*", mul.Op)
}

func TestParseRangeForAndCompoundAssign(t *testing.T) {
	prog, err := Parse(`
fn main() {
	let total = 0;
	for i in 0..10 {
		total += i;
	}
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	rf := fn.Body[1].(tir.RangeFor)
	require.Equal(t, "i", rf.Var)
	require.Equal(t, tir.NumLit{Value: 0}, rf.Low)
	require.Equal(t, tir.NumLit{Value: 10}, rf.High)
	ca := rf.Body[0].(tir.CompoundAssign)
	require.Equal(t, "+", ca.Op)
}

func TestParseClassicForLoop(t *testing.T) {
	prog, err := Parse(`
fn main() {
	for (let i = 0; i < 10; i += 1) {
		alloc(1);
	}
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	loop := fn.Body[0].(tir.For)
	require.IsType(t, tir.Define{}, loop.Init)
	require.IsType(t, tir.Binary{}, loop.Cond)
	require.IsType(t, tir.CompoundAssign{}, loop.Post)
}

func TestParseIfElseIfChain(t *testing.T) {
	prog, err := Parse(`
fn main() {
	if 1 == 1 {
		return;
	} else if 2 == 2 {
		return;
	} else {
		return;
	}
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	s := fn.Body[0].(tir.IfElseIf)
	require.Len(t, s.ElseIfs, 1)
	require.NotEmpty(t, s.ElseBody)
}

func TestParseTopLevelConditionalCompilation(t *testing.T) {
	prog, err := Parse(`
if TARGET == 'c' {
	const NAME = 1;
} else {
	const NAME = 2;
}
`)
	require.NoError(t, err)
	require.Len(t, prog.Decls, 1)
	_, ok := prog.Decls[0].(tir.IfElseDecl)
	require.True(t, ok)
}

func TestParseConstDeclWithIsMovable(t *testing.T) {
	prog, err := Parse(`
struct Thing { x: num; }
const MOVABLE = is_movable(Thing);
`)
	require.NoError(t, err)
	cd := prog.Decls[1].(tir.ConstDecl)
	require.Equal(t, "MOVABLE", cd.Name)
	im, ok := cd.Value.(tir.CIsMovable)
	require.True(t, ok)
	require.Equal(t, tir.TStructure{Name: "Thing"}, im.Type)
}

func TestParseMacroDefAndCall(t *testing.T) {
	prog, err := Parse(`
macro square(expr x) {
	x * x
}
fn main() {
	let r = square!(3);
}
`)
	require.NoError(t, err)
	require.Len(t, prog.Decls, 2)

	m := prog.Decls[0].(tir.Macro)
	require.Equal(t, "square", m.Name)
	require.Equal(t, []tir.MacroParam{{Name: "x", Kind: tir.KindExpression}}, m.Params)
	_, ok := m.Body.(tir.ExprResult)
	require.True(t, ok)

	fn := prog.Decls[1].(tir.FuncDecl).Func
	def := fn.Body[0].(tir.Define)
	call := def.Init.(tir.MacroCallExpr)
	require.Equal(t, "square", call.Call.Name)
	require.Len(t, call.Call.Args, 1)
}

func TestParseMethodCallAndMemberAccess(t *testing.T) {
	prog, err := Parse(`
fn main(p: Point) {
	let x = p.x;
	p.move(1, 2);
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	def := fn.Body[0].(tir.Define)
	ma := def.Init.(tir.MemberAccess)
	require.Equal(t, "x", ma.Name)

	expr := fn.Body[1].(tir.ExprStmt)
	mc := expr.Value.(tir.MethodCall)
	require.Equal(t, "move", mc.Method)
	require.Len(t, mc.Args, 2)
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	_, err := Parse(`fn main() { let = 1; }`)
	require.Error(t, err)
}

func TestParseAllocFreeAndPointerTypes(t *testing.T) {
	prog, err := Parse(`
fn main() {
	let p: &num = alloc(4);
	free(p);
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	def := fn.Body[0].(tir.Define)
	require.Equal(t, tir.TPointer{Inner: tir.TFloat{}}, def.Type)
	require.IsType(t, tir.Alloc{}, def.Init)

	free := fn.Body[1].(tir.ExprStmt)
	require.IsType(t, tir.Free{}, free.Value)
}

func TestParseDocHeaderDecl(t *testing.T) {
	prog, err := Parse(`
## Geometry helpers

fn main() {}
`)
	require.NoError(t, err)
	require.Len(t, prog.Decls, 2)
	require.Equal(t, tir.DocHeaderDecl{Text: "Geometry helpers"}, prog.Decls[0])
}

func TestParseFunctionAndStructDocstrings(t *testing.T) {
	prog, err := Parse(`
/// Returns the distance between two points.
fn dist(a: num, b: num) -> num {
	return a;
}

/// A point in 2D space.
struct Point {
	x: num;
}
`)
	require.NoError(t, err)
	fn := prog.Decls[0].(tir.FuncDecl).Func
	require.Equal(t, "Returns the distance between two points.", fn.Doc)

	sd := prog.Decls[1].(tir.StructDecl).Struct
	require.Equal(t, "A point in 2D space.", sd.Doc)
}
