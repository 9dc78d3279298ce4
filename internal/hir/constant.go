package hir

import (
	"fmt"

	"github.com/stackc-go/stackc/internal/target"
)

// Constant is a compile-time-evaluable expression: the condition language
// for Assert/If/IfElse and the right-hand side of const declarations.
// Grounded on original_source/src/hir.rs's HirConstant enum.
type Constant interface {
	// Eval resolves this constant to a float, given the accumulated
	// constant environment and the active compile target (needed for the
	// builtin TARGET constant and isdef()).
	Eval(env map[string]Constant, t target.Target) (float64, error)
	String() string
}

type Float float64
type Char byte
type True struct{}
type False struct{}

type binOp struct {
	op          string
	Left, Right Constant
}

func Add(l, r Constant) Constant          { return binOp{"+", l, r} }
func Subtract(l, r Constant) Constant     { return binOp{"-", l, r} }
func Multiply(l, r Constant) Constant     { return binOp{"*", l, r} }
func Divide(l, r Constant) Constant       { return binOp{"/", l, r} }
func And(l, r Constant) Constant          { return binOp{"&&", l, r} }
func Or(l, r Constant) Constant           { return binOp{"||", l, r} }
func Greater(l, r Constant) Constant      { return binOp{">", l, r} }
func Less(l, r Constant) Constant         { return binOp{"<", l, r} }
func GreaterEqual(l, r Constant) Constant { return binOp{">=", l, r} }
func LessEqual(l, r Constant) Constant    { return binOp{"<=", l, r} }
func Equal(l, r Constant) Constant        { return binOp{"==", l, r} }
func NotEqual(l, r Constant) Constant     { return binOp{"!=", l, r} }

// Ref is a reference to a named constant, resolved at evaluation time from
// env, except the builtin "TARGET" name which resolves to the active
// target's one-letter tag.
type Ref struct{ Name string }

// IsDefined reports (as 1.0/0.0) whether Name is present in env, used by
// the parser's `isdef(NAME)` construct for feature-testing macros.
type IsDefined struct{ Name string }

type Not struct{ Inner Constant }

func (c Float) String() string     { return fmt.Sprintf("%v", float64(c)) }
func (c Char) String() string      { return fmt.Sprintf("'%c'", byte(c)) }
func (True) String() string        { return "true" }
func (False) String() string       { return "false" }
func (c Ref) String() string       { return c.Name }
func (c IsDefined) String() string { return fmt.Sprintf("isdef(%q)", c.Name) }
func (c Not) String() string       { return "!" + c.Inner.String() }
func (c binOp) String() string     { return c.Left.String() + c.op + c.Right.String() }

func (c Float) Eval(map[string]Constant, target.Target) (float64, error) { return float64(c), nil }
func (c Char) Eval(map[string]Constant, target.Target) (float64, error)  { return float64(c), nil }
func (True) Eval(map[string]Constant, target.Target) (float64, error)    { return 1, nil }
func (False) Eval(map[string]Constant, target.Target) (float64, error)   { return 0, nil }

func (c Ref) Eval(env map[string]Constant, t target.Target) (float64, error) {
	if c.Name == "TARGET" {
		return float64(t.GetName()), nil
	}
	v, ok := env[c.Name]
	if !ok {
		return 0, fmt.Errorf("constant %q is not defined", c.Name)
	}
	return v.Eval(env, t)
}

func (c IsDefined) Eval(env map[string]Constant, t target.Target) (float64, error) {
	if _, ok := env[c.Name]; ok {
		return 1, nil
	}
	return 0, nil
}

func (c Not) Eval(env map[string]Constant, t target.Target) (float64, error) {
	v, err := c.Inner.Eval(env, t)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 1, nil
	}
	return 0, nil
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (c binOp) Eval(env map[string]Constant, t target.Target) (float64, error) {
	l, err := c.Left.Eval(env, t)
	if err != nil {
		return 0, err
	}
	r, err := c.Right.Eval(env, t)
	if err != nil {
		return 0, err
	}
	switch c.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "&&":
		return boolF(l != 0 && r != 0), nil
	case "||":
		return boolF(l != 0 || r != 0), nil
	case ">":
		return boolF(l > r), nil
	case "<":
		return boolF(l < r), nil
	case ">=":
		return boolF(l >= r), nil
	case "<=":
		return boolF(l <= r), nil
	case "==":
		return boolF(l == r), nil
	case "!=":
		return boolF(l != r), nil
	default:
		return 0, fmt.Errorf("unknown constant operator %q", c.op)
	}
}
