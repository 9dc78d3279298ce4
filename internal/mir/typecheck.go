package mir

import (
	"fmt"

	"github.com/stackc-go/stackc/internal/types"
)

// TypeError is the sentinel error type for MIR type-checking failures.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

func typeErrorf(format string, args ...interface{}) error {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// checker threads the symbol tables needed to resolve and check every
// expression in a program: struct defs, free-function signatures, and
// (per function) the local variable scope. Modeled as an explicit struct
// rather than package state, matching internal/vm's builder (spec §9).
type checker struct {
	structs     map[string]Structure
	funcs       map[string]Function
	locals      map[string]types.Type
	structSizes map[string]int
}

// TypeCheck statically checks every function body in p, resolving
// structure member/method accesses and verifying the num<->char/void
// pointer equivalence rules from internal/types.
func (p *Program) TypeCheck() error {
	c := &checker{
		structs: make(map[string]Structure, len(p.Structs)),
		funcs:   make(map[string]Function, len(p.Funcs)),
	}
	for _, s := range p.Structs {
		c.structs[s.Name] = s
	}
	for _, f := range p.Funcs {
		c.funcs[f.Name] = f
	}
	c.structSizes = structSizes(c.structs)

	for _, f := range p.Funcs {
		if err := c.checkFunction(f); err != nil {
			return err
		}
	}
	for _, s := range p.Structs {
		for _, m := range s.Methods {
			if err := c.checkFunction(m); err != nil {
				return fmt.Errorf("in %s: %w", s.Mangle(m.Name), err)
			}
		}
	}
	return nil
}

func (c *checker) checkFunction(f Function) error {
	c.locals = make(map[string]types.Type, len(f.Args))
	for _, a := range f.Args {
		c.locals[a.Name] = a.Type
	}
	for _, stmt := range f.Body {
		if err := c.checkStatement(stmt, f.ReturnType); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkStatement(s Statement, returnType types.Type) error {
	switch s := s.(type) {
	case Define:
		if s.Init != nil {
			t, err := c.checkExpr(s.Init)
			if err != nil {
				return err
			}
			if !t.Equal(s.Type) {
				return typeErrorf("cannot initialize %s (%s) with value of type %s", s.Name, s.Type, t)
			}
		}
		c.locals[s.Name] = s.Type
		return nil

	case Assign:
		target, err := c.checkExpr(s.Target)
		if err != nil {
			return err
		}
		value, err := c.checkExpr(s.Value)
		if err != nil {
			return err
		}
		if !target.Equal(value) {
			return typeErrorf("cannot assign value of type %s to target of type %s", value, target)
		}
		return nil

	case If:
		t, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if !t.Equal(types.Bool()) {
			return typeErrorf("if condition must be bool, got %s", t)
		}
		return c.checkBlock(s.Body, returnType)

	case IfElse:
		t, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if !t.Equal(types.Bool()) {
			return typeErrorf("if condition must be bool, got %s", t)
		}
		if err := c.checkBlock(s.ThenBody, returnType); err != nil {
			return err
		}
		return c.checkBlock(s.ElseBody, returnType)

	case While:
		t, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if !t.Equal(types.Bool()) {
			return typeErrorf("while condition must be bool, got %s", t)
		}
		return c.checkBlock(s.Body, returnType)

	case For:
		if s.Init != nil {
			if err := c.checkStatement(s.Init, returnType); err != nil {
				return err
			}
		}
		t, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if !t.Equal(types.Bool()) {
			return typeErrorf("for condition must be bool, got %s", t)
		}
		if s.Post != nil {
			if err := c.checkStatement(s.Post, returnType); err != nil {
				return err
			}
		}
		return c.checkBlock(s.Body, returnType)

	case Return:
		if s.Value == nil {
			if !returnType.Equal(types.Void()) {
				return typeErrorf("missing return value for function returning %s", returnType)
			}
			return nil
		}
		t, err := c.checkExpr(s.Value)
		if err != nil {
			return err
		}
		if !t.Equal(returnType) {
			return typeErrorf("returned value has type %s, expected %s", t, returnType)
		}
		return nil

	case ExprStmt:
		_, err := c.checkExpr(s.Value)
		return err

	default:
		return typeErrorf("unhandled statement type %T", s)
	}
}

func (c *checker) checkBlock(body []Statement, returnType types.Type) error {
	for _, stmt := range body {
		if err := c.checkStatement(stmt, returnType); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkExpr(e Expression) (types.Type, error) {
	switch e := e.(type) {
	case StringLit:
		return types.Char().Pointer(), nil
	case CharLit:
		return types.Char(), nil
	case NumLit:
		return types.Num(), nil
	case BoolLit:
		return types.Bool(), nil
	case VoidLit:
		return types.Void(), nil

	case Var:
		t, ok := c.locals[e.Name]
		if !ok {
			return types.Type{}, typeErrorf("undefined variable %q", e.Name)
		}
		return t, nil

	case Member_:
		recvType, err := c.checkExpr(e.Recv)
		if err != nil {
			return types.Type{}, err
		}
		base := recvType.DerefAll()
		if !base.IsStructure() {
			return types.Type{}, typeErrorf("cannot access member %q of non-structure type %s", e.Name, recvType)
		}
		s, ok := c.structs[base.Name]
		if !ok {
			return types.Type{}, typeErrorf("unknown structure %q", base.Name)
		}
		for _, m := range s.Members {
			if m.Name == e.Name {
				return m.Type, nil
			}
		}
		return types.Type{}, typeErrorf("structure %s has no member %q", base.Name, e.Name)

	case Call:
		f, ok := c.funcs[e.Name]
		if !ok {
			return types.Type{}, typeErrorf("undefined function %q", e.Name)
		}
		if err := c.checkArgs(e.Name, f.Args, e.Args); err != nil {
			return types.Type{}, err
		}
		return f.ReturnType, nil

	case MethodCall:
		s, ok := c.structs[e.StructName]
		if !ok {
			return types.Type{}, typeErrorf("unknown structure %q", e.StructName)
		}
		var method *Function
		for i := range s.Methods {
			if s.Methods[i].Name == e.Method {
				method = &s.Methods[i]
				break
			}
		}
		if method == nil {
			return types.Type{}, typeErrorf("structure %s has no method %q", e.StructName, e.Method)
		}
		if _, err := c.checkExpr(e.Recv); err != nil {
			return types.Type{}, err
		}
		if err := c.checkArgs(s.Mangle(e.Method), method.Args, e.Args); err != nil {
			return types.Type{}, err
		}
		return method.ReturnType, nil

	case ForeignCall:
		for _, a := range e.Args {
			if _, err := c.checkExpr(a); err != nil {
				return types.Type{}, err
			}
		}
		if isComparisonForeignCall(e.Name) {
			return types.Bool(), nil
		}
		// Extern declarations carry no static return type in this port and
		// the grammar has no annotation for one: every foreign call other
		// than the comparison helpers is typed num.
		return types.Num(), nil

	case Refer:
		t, err := c.checkExpr(e.Value)
		if err != nil {
			return types.Type{}, err
		}
		return t.Refer(), nil

	case Deref:
		t, err := c.checkExpr(e.Value)
		if err != nil {
			return types.Type{}, err
		}
		d, err := t.Deref()
		if err != nil {
			return types.Type{}, typeErrorf("cannot dereference non-pointer type %s", t)
		}
		return d, nil

	case Binary:
		lt, err := c.checkExpr(e.Left)
		if err != nil {
			return types.Type{}, err
		}
		rt, err := c.checkExpr(e.Right)
		if err != nil {
			return types.Type{}, err
		}
		if !lt.Equal(rt) {
			return types.Type{}, typeErrorf("operand type mismatch: %s vs %s", lt, rt)
		}
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=":
			return types.Bool(), nil
		case "&&", "||":
			return types.Bool(), nil
		default:
			if lt.SizeOf(c.structSizes) != 1 {
				return types.Type{}, typeErrorf("cannot use non-numbers %s and %s in binary operation", lt, rt)
			}
			return lt, nil
		}

	case Unary:
		t, err := c.checkExpr(e.Value)
		if err != nil {
			return types.Type{}, err
		}
		return t, nil

	case Alloc:
		if _, err := c.checkExpr(e.Count); err != nil {
			return types.Type{}, err
		}
		return types.Void().Pointer(), nil

	case FreeExpr:
		t, err := c.checkExpr(e.Value)
		if err != nil {
			return types.Type{}, err
		}
		if !t.IsPointer() {
			return types.Type{}, typeErrorf("cannot free non-pointer type %s", t)
		}
		return types.Void(), nil

	case Index:
		pt, err := c.checkExpr(e.Ptr)
		if err != nil {
			return types.Type{}, err
		}
		if !pt.IsPointer() {
			return types.Type{}, typeErrorf("cannot index non-pointer type %s", pt)
		}
		it, err := c.checkExpr(e.Idx)
		if err != nil {
			return types.Type{}, err
		}
		if it.SizeOf(c.structSizes) != 1 {
			return types.Type{}, typeErrorf("cannot use non-number %s as an index for an array", it)
		}
		// Indexing yields an address into the array, so the result keeps
		// p's own pointer type rather than the dereferenced element type.
		return pt, nil

	default:
		return types.Type{}, typeErrorf("unhandled expression type %T", e)
	}
}

// isComparisonForeignCall recognizes the foreign-call names tir/desugar.go
// rewrites comparison operators to, since the stack VM has no comparison
// opcode of its own and these calls cross into host runtime code whose
// static return type the checker would otherwise have no way to know.
func isComparisonForeignCall(name string) bool {
	switch name {
	case "ok_lt", "ok_le", "ok_gt", "ok_ge", "ok_eq", "ok_ne":
		return true
	default:
		return false
	}
}

func (c *checker) checkArgs(callee string, params []Param, args []Expression) error {
	if len(params) != len(args) {
		return typeErrorf("%s expects %d arguments, got %d", callee, len(params), len(args))
	}
	for i, a := range args {
		t, err := c.checkExpr(a)
		if err != nil {
			return err
		}
		if !t.Equal(params[i].Type) {
			return typeErrorf("%s argument %d: expected %s, got %s", callee, i, params[i].Type, t)
		}
	}
	return nil
}
