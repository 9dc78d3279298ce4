package tir

import (
	"github.com/stackc-go/stackc/internal/hir"
	"github.com/stackc-go/stackc/internal/mir"
	"github.com/stackc-go/stackc/internal/types"
)

// Compile lowers a whole parsed TIR program to HIR: expands every macro
// call, synthesizes default copy/drop methods for movable structures
// (validating any user-supplied ones on non-movable structures), rejects
// explicit calls to "copy"/"drop", desugars range-for/compound-assign/
// else-if/comparisons, and finally translates the tree node-for-node into
// the hir package's surface types (spec §4.5 feeding spec §4.4).
func (p *Program) Compile() (*hir.Program, error) {
	decls, err := expandMacros(p.Decls)
	if err != nil {
		return nil, err
	}

	structs := map[string]Structure{}
	for _, d := range decls {
		if sd, ok := d.(StructDecl); ok {
			structs[sd.Struct.Name] = sd.Struct
		}
	}

	if err := resolveMethodCalls(decls, structs); err != nil {
		return nil, err
	}
	for _, d := range decls {
		if sd, ok := d.(StructDecl); ok {
			structs[sd.Struct.Name] = sd.Struct
		}
	}

	mv, err := movable(structs)
	if err != nil {
		return nil, err
	}
	if err := synthesizeDefaults(structs, mv); err != nil {
		return nil, err
	}

	for i, d := range decls {
		switch d := d.(type) {
		case StructDecl:
			d.Struct = structs[d.Struct.Name]
			decls[i] = d
		}
	}

	for _, s := range structs {
		for _, m := range s.Methods {
			if err := checkNoExplicitCopyCalls(m); err != nil {
				return nil, err
			}
		}
	}
	for _, d := range decls {
		if fd, ok := d.(FuncDecl); ok {
			if err := checkNoExplicitCopyCalls(fd.Func); err != nil {
				return nil, err
			}
		}
	}

	var hirDecls []hir.Declaration
	for _, d := range decls {
		hd, err := toHIRDecl(d, mv)
		if err != nil {
			return nil, err
		}
		if hd != nil {
			hirDecls = append(hirDecls, hd)
		}
	}

	return &hir.Program{Decls: hirDecls, HeapSize: p.MemSize}, nil
}

func toHIRDecl(d Declaration, mv map[string]bool) (hir.Declaration, error) {
	switch d := d.(type) {
	case FuncDecl:
		return hir.FuncDecl{Func: toHIRFunc(desugarFunc(d.Func))}, nil

	case StructDecl:
		var members []mir.Member
		for _, m := range d.Struct.Members {
			members = append(members, mir.Member{Name: m.Name, Type: toMIRType(m.Type)})
		}
		var methods []hir.Function
		for _, m := range d.Struct.Methods {
			methods = append(methods, toHIRFunc(desugarFunc(m)))
		}
		return hir.StructDecl{Struct: hir.Structure{
			Name:    d.Struct.Name,
			Size:    hir.Float(sumMemberSizes(members)),
			Members: members,
			Methods: methods,
		}}, nil

	case ConstDecl:
		v, err := toHIRConstant(d.Value, mv)
		if err != nil {
			return nil, err
		}
		return hir.ConstDecl{Name: d.Name, Value: v}, nil

	case AssertDecl:
		v, err := toHIRConstant(d.Cond, mv)
		if err != nil {
			return nil, err
		}
		return hir.AssertDecl{Cond: v}, nil

	case IfDecl:
		cond, err := toHIRConstant(d.Cond, mv)
		if err != nil {
			return nil, err
		}
		body, err := toHIRProgram(d.Body, mv)
		if err != nil {
			return nil, err
		}
		return hir.IfDecl{Cond: cond, Body: *body}, nil

	case IfElseDecl:
		cond, err := toHIRConstant(d.Cond, mv)
		if err != nil {
			return nil, err
		}
		then, err := toHIRProgram(d.ThenBody, mv)
		if err != nil {
			return nil, err
		}
		els, err := toHIRProgram(d.ElseBody, mv)
		if err != nil {
			return nil, err
		}
		return hir.IfElseDecl{Cond: cond, ThenBody: *then, ElseBody: *els}, nil

	case ErrorDecl:
		return hir.ErrorDecl{Message: d.Message}, nil
	case ExternDecl:
		return hir.ExternDecl{Filename: d.Filename}, nil
	case IncludeDecl:
		return hir.IncludeDecl{Filename: d.Filename}, nil
	case HeapSizeDecl:
		return hir.HeapSizeDecl{Size: d.Size}, nil
	case RequireStdDecl:
		return hir.RequireStdDecl{}, nil
	case NoStdDecl:
		return hir.NoStdDecl{}, nil
	case DocHeaderDecl:
		return nil, nil
	default:
		return nil, errf("unhandled TIR declaration %T after macro expansion", d)
	}
}

func toHIRProgram(p Program, mv map[string]bool) (*hir.Program, error) {
	var out []hir.Declaration
	for _, d := range p.Decls {
		hd, err := toHIRDecl(d, mv)
		if err != nil {
			return nil, err
		}
		if hd != nil {
			out = append(out, hd)
		}
	}
	return &hir.Program{Decls: out, HeapSize: p.MemSize}, nil
}

// sumMemberSizes gives every structure a byte-counted size as the sum of
// its (already-lowered) member sizes. This is a deliberate simplification
// relative to the ported HIR Structure.Size field, which in the original
// is an arbitrary compile-time constant expression (e.g. one involving
// TARGET); see DESIGN.md.
func sumMemberSizes(members []mir.Member) float64 {
	total := 0
	seen := map[string]int{}
	for _, m := range members {
		total += m.Type.SizeOf(seen)
	}
	return float64(total)
}

func toHIRFunc(f Function) hir.Function {
	var params []hir.Param
	for _, p := range f.Params {
		params = append(params, hir.Param{Name: p.Name, Type: toHIRType(p.Type)})
	}
	return hir.Function{
		Name:       f.Name,
		Args:       params,
		ReturnType: toHIRType(f.ReturnType),
		Body:       toMIRStatements(f.Body),
	}
}

func toHIRType(t Type) hir.Type {
	switch t := t.(type) {
	case TPointer:
		return hir.TPointer{Inner: toHIRType(t.Inner)}
	case TVoid:
		return hir.TVoid{}
	case TFloat:
		return hir.TFloat{}
	case TBool:
		return hir.TBool{}
	case TChar:
		return hir.TChar{}
	case TStructure:
		return hir.TStructure{Name: t.Name}
	default:
		return hir.TVoid{}
	}
}

func toMIRType(t Type) types.Type {
	return hir.ToMIRType(toHIRType(t))
}

// toHIRConstant lowers a TIR constant expression to HIR's Constant
// representation, resolving IsMovable(type) immediately from the
// precomputed movability table since hir.Constant has no equivalent
// variant (movability is purely a TIR-time static fact, not something
// HIR's Eval needs to recompute per-target).
func toHIRConstant(c Constant, mv map[string]bool) (hir.Constant, error) {
	switch c := c.(type) {
	case CFloat:
		return hir.Float(c), nil
	case CChar:
		return hir.Char(c), nil
	case CTrue:
		return hir.True{}, nil
	case CFalse:
		return hir.False{}, nil
	case CRef:
		return hir.Ref{Name: c.Name}, nil
	case CIsDefined:
		return hir.IsDefined{Name: c.Name}, nil
	case CNot:
		inner, err := toHIRConstant(c.Inner, mv)
		if err != nil {
			return nil, err
		}
		return hir.Not{Inner: inner}, nil
	case CIsMovable:
		st, ok := c.Type.(TStructure)
		if !ok {
			// Every non-structure type (primitives, pointers) is movable.
			return hir.True{}, nil
		}
		if mv[st.Name] {
			return hir.True{}, nil
		}
		return hir.False{}, nil
	case CBin:
		l, err := toHIRConstant(c.Left, mv)
		if err != nil {
			return nil, err
		}
		r, err := toHIRConstant(c.Right, mv)
		if err != nil {
			return nil, err
		}
		return binConstant(c.Op, l, r)
	default:
		return nil, errf("unhandled TIR constant %T", c)
	}
}

func binConstant(op string, l, r hir.Constant) (hir.Constant, error) {
	switch op {
	case "+":
		return hir.Add(l, r), nil
	case "-":
		return hir.Subtract(l, r), nil
	case "*":
		return hir.Multiply(l, r), nil
	case "/":
		return hir.Divide(l, r), nil
	case "&&":
		return hir.And(l, r), nil
	case "||":
		return hir.Or(l, r), nil
	case ">":
		return hir.Greater(l, r), nil
	case "<":
		return hir.Less(l, r), nil
	case ">=":
		return hir.GreaterEqual(l, r), nil
	case "<=":
		return hir.LessEqual(l, r), nil
	case "==":
		return hir.Equal(l, r), nil
	case "!=":
		return hir.NotEqual(l, r), nil
	default:
		return nil, errf("unknown constant operator %q", op)
	}
}

// toMIRStatements converts a desugared TIR statement list directly into
// mir.Statement (== hir.Statement, spec §3), the point at which TIR's
// own Expression/Statement trees stop existing.
func toMIRStatements(stmts []Statement) []mir.Statement {
	var out []mir.Statement
	for _, s := range stmts {
		out = append(out, toMIRStatement(s))
	}
	return out
}

func toMIRStatement(s Statement) mir.Statement {
	switch s := s.(type) {
	case Define:
		return mir.Define{Name: s.Name, Type: toMIRType(s.Type), Init: toMIRExprOrNil(s.Init)}
	case Assign:
		return mir.Assign{Target: toMIRExpr(s.Target), Value: toMIRExpr(s.Value)}
	case If:
		return mir.If{Cond: toMIRExpr(s.Cond), Body: toMIRStatements(s.Body)}
	case IfElseIf:
		return mir.IfElse{
			Cond:     toMIRExpr(s.Cond),
			ThenBody: toMIRStatements(s.ThenBody),
			ElseBody: toMIRStatements(s.ElseBody),
		}
	case While:
		return mir.While{Cond: toMIRExpr(s.Cond), Body: toMIRStatements(s.Body)}
	case For:
		return mir.For{
			Init: toMIRStatementOrNil(s.Init),
			Cond: toMIRExpr(s.Cond),
			Post: toMIRStatementOrNil(s.Post),
			Body: toMIRStatements(s.Body),
		}
	case Return:
		return mir.Return{Value: toMIRExprOrNil(s.Value)}
	case ExprStmt:
		return mir.ExprStmt{Value: toMIRExpr(s.Value)}
	default:
		// Desugaring eliminates CompoundAssign/RangeFor before this point;
		// anything else reaching here is a TIR bug, not a user error.
		panic(errf("unhandled TIR statement %T reached MIR lowering", s))
	}
}

func toMIRStatementOrNil(s Statement) mir.Statement {
	if s == nil {
		return nil
	}
	return toMIRStatement(s)
}

func toMIRExprOrNil(e Expression) mir.Expression {
	if e == nil {
		return nil
	}
	return toMIRExpr(e)
}

func toMIRExpr(e Expression) mir.Expression {
	switch e := e.(type) {
	case StringLit:
		return mir.StringLit{Value: e.Value}
	case CharLit:
		return mir.CharLit{Value: e.Value}
	case NumLit:
		return mir.NumLit{Value: e.Value}
	case BoolLit:
		return mir.BoolLit{Value: e.Value}
	case VoidLit:
		return mir.VoidLit{}
	case Var:
		return mir.Var{Name: e.Name}
	case MemberAccess:
		return mir.Member_{Recv: toMIRExpr(e.Recv), Name: e.Name}
	case Call:
		return mir.Call{Name: e.Name, Args: toMIRExprs(e.Args)}
	case MethodCall:
		return mir.MethodCall{
			StructName: e.StructName,
			Recv:       toMIRExpr(e.Recv),
			Method:     e.Method,
			Args:       toMIRExprs(e.Args),
		}
	case ForeignCall:
		return mir.ForeignCall{Name: e.Name, Args: toMIRExprs(e.Args)}
	case Refer:
		return mir.Refer{Value: toMIRExpr(e.Value)}
	case Deref:
		return mir.Deref{Value: toMIRExpr(e.Value)}
	case Binary:
		return mir.Binary{Op: e.Op, Left: toMIRExpr(e.Left), Right: toMIRExpr(e.Right)}
	case Unary:
		return mir.Unary{Op: e.Op, Value: toMIRExpr(e.Value)}
	case Alloc:
		return mir.Alloc{Count: toMIRExpr(e.Count)}
	case Free:
		return mir.FreeExpr{Value: toMIRExpr(e.Value)}
	case Index:
		return mir.Index{Ptr: toMIRExpr(e.Ptr), Idx: toMIRExpr(e.Idx)}
	default:
		panic(errf("unhandled TIR expression %T reached MIR lowering", e))
	}
}

func toMIRExprs(exprs []Expression) []mir.Expression {
	var out []mir.Expression
	for _, e := range exprs {
		out = append(out, toMIRExpr(e))
	}
	return out
}
