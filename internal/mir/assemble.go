package mir

import (
	"fmt"

	"github.com/stackc-go/stackc/internal/types"
	"github.com/stackc-go/stackc/internal/vm"
)

// assembler threads the lowering-time state: resolved structure sizes, the
// function/local-variable type environment needed to re-derive expression
// types during address computation, and a counter used to mint fresh
// %IF_VAR%/%ELSE_VAR% flag names so nested conditionals never collide
// (spec §4.3).
type assembler struct {
	structs     map[string]Structure
	structSizes map[string]int
	funcs       map[string]Function
	locals      map[string]types.Type
	flagCounter int
}

// Assemble lowers a type-checked MIR program into an ASM program, flattening
// every structure method into a free function named via Structure.Mangle
// and lowering If/IfElse/While/For to vm.For (spec §4.3).
func (p *Program) Assemble() (*vm.Program, error) {
	a := &assembler{
		structs: make(map[string]Structure, len(p.Structs)),
		funcs:   make(map[string]Function, len(p.Funcs)),
	}
	for _, s := range p.Structs {
		a.structs[s.Name] = s
	}
	for _, f := range p.Funcs {
		a.funcs[f.Name] = f
	}
	a.structSizes = structSizes(a.structs)

	var funcs []vm.Function
	for _, f := range p.Funcs {
		fn, err := a.assembleFunction(f.Name, f)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}
	for _, s := range p.Structs {
		for _, m := range s.Methods {
			fn, err := a.assembleFunction(s.Mangle(m.Name), m)
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, fn)
		}
	}

	prog := vm.NewProgram(funcs, p.HeapSize)
	return &prog, nil
}

func (a *assembler) vmType(t types.Type) vm.Type {
	return vm.Type{PtrLevel: t.PtrLevel, Size: t.SizeOf(a.structSizes)}
}

func (a *assembler) assembleFunction(asmName string, f Function) (vm.Function, error) {
	var args []vm.Arg
	a.locals = make(map[string]types.Type, len(f.Args))
	for _, p := range f.Args {
		args = append(args, vm.Arg{Name: p.Name, Type: a.vmType(p.Type)})
		a.locals[p.Name] = p.Type
	}

	var body []vm.Statement
	for _, s := range f.Body {
		stmts, err := a.assembleStatement(s)
		if err != nil {
			return vm.Function{}, err
		}
		body = append(body, stmts...)
	}

	return vm.NewFunction(asmName, args, a.vmType(f.ReturnType), body), nil
}

func (a *assembler) freshFlag(prefix string) string {
	a.flagCounter++
	return fmt.Sprintf("%%%s_%d%%", prefix, a.flagCounter)
}

// assembleStatement returns zero or more vm.Statements, since If/IfElse
// lower to a flag Define/Assign pair plus one or two vm.For loops.
func (a *assembler) assembleStatement(s Statement) ([]vm.Statement, error) {
	switch s := s.(type) {
	case Define:
		a.locals[s.Name] = s.Type
		out := []vm.Statement{vm.Define{Name: s.Name, Type: a.vmType(s.Type)}}
		if s.Init != nil {
			init, err := a.assembleExprSeq(s.Init)
			if err != nil {
				return nil, err
			}
			exprs := append([]vm.Expression{vm.Refer{Name: s.Name}}, init...)
			out = append(out,
				vm.ExprStmt{Exprs: exprs},
				vm.Assign{Type: a.vmType(s.Type)},
			)
		} else {
			out = append(out, vm.Assign{Type: a.vmType(s.Type)})
		}
		return out, nil

	case Assign:
		addr, err := a.addressExprSeq(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := a.assembleExprSeq(s.Value)
		if err != nil {
			return nil, err
		}
		valType, err := a.exprType(s.Value)
		if err != nil {
			return nil, err
		}
		exprs := append(addr, value...)
		return []vm.Statement{
			vm.ExprStmt{Exprs: exprs},
			vm.Assign{Type: a.vmType(valType)},
		}, nil

	case If:
		return a.lowerIf(s.Cond, s.Body)

	case IfElse:
		return a.lowerIfElse(s.Cond, s.ThenBody, s.ElseBody)

	case While:
		cond, err := a.assembleExprSeq(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := a.assembleBlock(s.Body)
		if err != nil {
			return nil, err
		}
		return []vm.Statement{vm.For{
			Cond: cond,
			Body: body,
		}}, nil

	case For:
		var pre []vm.Statement
		if s.Init != nil {
			stmts, err := a.assembleStatement(s.Init)
			if err != nil {
				return nil, err
			}
			pre = stmts
		}
		cond, err := a.assembleExprSeq(s.Cond)
		if err != nil {
			return nil, err
		}
		var post []vm.Statement
		if s.Post != nil {
			stmts, err := a.assembleStatement(s.Post)
			if err != nil {
				return nil, err
			}
			post = stmts
		}
		body, err := a.assembleBlock(s.Body)
		if err != nil {
			return nil, err
		}
		return []vm.Statement{vm.For{
			Pre:  pre,
			Cond: cond,
			Post: post,
			Body: body,
		}}, nil

	case Return:
		if s.Value == nil {
			return nil, nil
		}
		value, err := a.assembleExprSeq(s.Value)
		if err != nil {
			return nil, err
		}
		return []vm.Statement{vm.ExprStmt{Exprs: value}}, nil

	case ExprStmt:
		value, err := a.assembleExprSeq(s.Value)
		if err != nil {
			return nil, err
		}
		return []vm.Statement{vm.ExprStmt{Exprs: value}}, nil

	default:
		return nil, fmt.Errorf("unhandled mir statement %T", s)
	}
}

func (a *assembler) assembleBlock(body []Statement) ([]vm.Statement, error) {
	var out []vm.Statement
	for _, s := range body {
		stmts, err := a.assembleStatement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// lowerIf implements the single-shot loop trick (spec §4.3): the
// condition is evaluated once into a boolean flag variable, then a
// vm.For loop runs the body exactly once when the flag is true, clearing
// it before the loop re-checks its own condition.
func (a *assembler) lowerIf(cond Expression, body []Statement) ([]vm.Statement, error) {
	flag := a.freshFlag("IF_VAR")
	condExpr, err := a.assembleExprSeq(cond)
	if err != nil {
		return nil, err
	}
	bodyStmts, err := a.assembleBlock(body)
	if err != nil {
		return nil, err
	}

	boolType := vm.CharType()
	clearFlag := []vm.Statement{
		vm.ExprStmt{Exprs: []vm.Expression{vm.Refer{Name: flag}, vm.FloatLit{Value: 0}}},
		vm.Assign{Type: boolType},
	}

	return []vm.Statement{
		vm.Define{Name: flag, Type: boolType},
		vm.ExprStmt{Exprs: condExpr},
		vm.Assign{Type: boolType},
		vm.For{
			Cond: []vm.Expression{vm.Variable{Name: flag}},
			Body: append(append([]vm.Statement{}, bodyStmts...), clearFlag...),
		},
	}, nil
}

// lowerIfElse assembles two complementary single-shot loops sharing
// %IF_VAR%/%ELSE_VAR% flags so exactly one branch body executes.
func (a *assembler) lowerIfElse(cond Expression, thenBody, elseBody []Statement) ([]vm.Statement, error) {
	ifFlag := a.freshFlag("IF_VAR")
	elseFlag := a.freshFlag("ELSE_VAR")
	condExpr, err := a.assembleExprSeq(cond)
	if err != nil {
		return nil, err
	}
	thenStmts, err := a.assembleBlock(thenBody)
	if err != nil {
		return nil, err
	}
	elseStmts, err := a.assembleBlock(elseBody)
	if err != nil {
		return nil, err
	}

	boolType := vm.CharType()
	clear := func(name string) []vm.Statement {
		return []vm.Statement{
			vm.ExprStmt{Exprs: []vm.Expression{vm.Refer{Name: name}, vm.FloatLit{Value: 0}}},
			vm.Assign{Type: boolType},
		}
	}
	// !cond computed as (1 - cond) since the VM has no boolean NOT opcode;
	// cond is already a 0/1-valued char cell.
	negate := []vm.Expression{vm.FloatLit{Value: 1}, vm.Variable{Name: ifFlag}, vm.Sub{}}

	return []vm.Statement{
		vm.Define{Name: ifFlag, Type: boolType},
		vm.ExprStmt{Exprs: condExpr},
		vm.Assign{Type: boolType},

		vm.Define{Name: elseFlag, Type: boolType},
		vm.ExprStmt{Exprs: append([]vm.Expression{vm.Refer{Name: elseFlag}}, negate...)},
		vm.Assign{Type: boolType},

		vm.For{
			Cond: []vm.Expression{vm.Variable{Name: ifFlag}},
			Body: append(append([]vm.Statement{}, thenStmts...), clear(ifFlag)...),
		},
		vm.For{
			Cond: []vm.Expression{vm.Variable{Name: elseFlag}},
			Body: append(append([]vm.Statement{}, elseStmts...), clear(elseFlag)...),
		},
	}, nil
}

// exprType re-derives an expression's static type during assembly, mirroring
// checker.checkExpr's logic. The checker has already rejected anything that
// wouldn't type-check by this point, so the error returns here only guard
// against assembler bugs rather than user mistakes.
func (a *assembler) exprType(e Expression) (types.Type, error) {
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
		t, ok := a.locals[e.Name]
		if !ok {
			return types.Type{}, fmt.Errorf("undefined variable %q", e.Name)
		}
		return t, nil

	case Member_:
		_, t, err := a.memberOffsetOf(e)
		return t, err

	case Call:
		f, ok := a.funcs[e.Name]
		if !ok {
			return types.Type{}, fmt.Errorf("undefined function %q", e.Name)
		}
		return f.ReturnType, nil

	case MethodCall:
		s, ok := a.structs[e.StructName]
		if !ok {
			return types.Type{}, fmt.Errorf("unknown structure %q", e.StructName)
		}
		for _, m := range s.Methods {
			if m.Name == e.Method {
				return m.ReturnType, nil
			}
		}
		return types.Type{}, fmt.Errorf("structure %s has no method %q", e.StructName, e.Method)

	case ForeignCall:
		if isComparisonForeignCall(e.Name) {
			return types.Bool(), nil
		}
		return types.Num(), nil

	case Refer:
		t, err := a.exprType(e.Value)
		if err != nil {
			return types.Type{}, err
		}
		return t.Refer(), nil

	case Deref:
		t, err := a.exprType(e.Value)
		if err != nil {
			return types.Type{}, err
		}
		return t.Deref()

	case Binary:
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return types.Bool(), nil
		default:
			return a.exprType(e.Left)
		}

	case Unary:
		return a.exprType(e.Value)

	case Alloc:
		return types.Void().Pointer(), nil

	case FreeExpr:
		return types.Void(), nil

	case Index:
		return a.exprType(e.Ptr)

	default:
		return types.Type{}, fmt.Errorf("unhandled mir expression %T", e)
	}
}

// memberOffsetOf resolves a Member_ expression's receiver to a structure and
// delegates to memberOffset; memberOffset does the offset/type lookup given
// a structure name and member name directly.
func (a *assembler) memberOffsetOf(e Member_) (int, types.Type, error) {
	recvType, err := a.exprType(e.Recv)
	if err != nil {
		return 0, types.Type{}, err
	}
	base := recvType.DerefAll()
	if !base.IsStructure() {
		return 0, types.Type{}, fmt.Errorf("cannot access member %q of non-structure type %s", e.Name, recvType)
	}
	return a.memberOffset(base.Name, e.Name)
}

// memberOffset computes a member's byte(cell) offset within structName by
// summing the sizes of the members declared before it.
func (a *assembler) memberOffset(structName, member string) (int, types.Type, error) {
	s, ok := a.structs[structName]
	if !ok {
		return 0, types.Type{}, fmt.Errorf("unknown structure %q", structName)
	}
	offset := 0
	for _, m := range s.Members {
		if m.Name == member {
			return offset, m.Type, nil
		}
		offset += m.Type.SizeOf(a.structSizes)
	}
	return 0, types.Type{}, fmt.Errorf("structure %s has no member %q", structName, member)
}

// addressExprSeq lowers e, an lvalue, into the ASM expression sequence that
// leaves its address on top of the stack (spec §4.3's AssignAddress target
// computation): a named local's own slot, a pointer's pointee (whose address
// is simply the pointer's value), or a structure member (base address plus
// a static offset).
func (a *assembler) addressExprSeq(e Expression) ([]vm.Expression, error) {
	switch e := e.(type) {
	case Var:
		return []vm.Expression{vm.Refer{Name: e.Name}}, nil

	case Deref:
		// *p's address is p's value.
		return a.assembleExprSeq(e.Value)

	case Member_:
		base, err := a.structBaseAddress(e.Recv)
		if err != nil {
			return nil, err
		}
		offset, _, err := a.memberOffsetOf(e)
		if err != nil {
			return nil, err
		}
		if offset == 0 {
			return base, nil
		}
		return append(base, vm.FloatLit{Value: float64(offset)}, vm.Add{}), nil

	default:
		return nil, fmt.Errorf("expression %T is not assignable", e)
	}
}

// structBaseAddress computes the address of the structure value recv lives
// at: if recv is itself pointer-typed, its value already is that address;
// otherwise recv denotes a plain structure value and addressExprSeq finds
// where it lives.
func (a *assembler) structBaseAddress(recv Expression) ([]vm.Expression, error) {
	t, err := a.exprType(recv)
	if err != nil {
		return nil, err
	}
	if t.IsPointer() {
		return a.assembleExprSeq(recv)
	}
	return a.addressExprSeq(recv)
}

// assembleExprSeq lowers one MIR expression into the sequence of ASM
// expressions that leaves its value(s) on the stack: for most expressions
// this is a single opcode, but compound expressions (binary operators,
// Alloc, Free, Deref, calls with arguments) must first assemble their
// operands' push sequences before the final opcode.
func (a *assembler) assembleExprSeq(e Expression) ([]vm.Expression, error) {
	switch e := e.(type) {
	case StringLit:
		return []vm.Expression{vm.StringLit{Value: e.Value}}, nil
	case CharLit:
		return []vm.Expression{vm.CharLit{Value: e.Value}}, nil
	case NumLit:
		return []vm.Expression{vm.FloatLit{Value: e.Value}}, nil
	case BoolLit:
		v := float64(0)
		if e.Value {
			v = 1
		}
		return []vm.Expression{vm.FloatLit{Value: v}}, nil
	case VoidLit:
		return []vm.Expression{vm.VoidExpr{}}, nil

	case Var:
		return []vm.Expression{vm.Variable{Name: e.Name}}, nil

	case Refer:
		return a.addressExprSeq(e.Value)

	case Deref:
		inner, err := a.assembleExprSeq(e.Value)
		if err != nil {
			return nil, err
		}
		pointeeType, err := a.exprType(e)
		if err != nil {
			return nil, err
		}
		return append(inner, vm.Deref{Size: a.vmType(pointeeType).Size}), nil

	case Member_:
		addr, err := a.addressExprSeq(e)
		if err != nil {
			return nil, err
		}
		memberType, err := a.exprType(e)
		if err != nil {
			return nil, err
		}
		return append(addr, vm.Deref{Size: a.vmType(memberType).Size}), nil

	case Index:
		ptr, err := a.assembleExprSeq(e.Ptr)
		if err != nil {
			return nil, err
		}
		idx, err := a.assembleExprSeq(e.Idx)
		if err != nil {
			return nil, err
		}
		ptrType, err := a.exprType(e.Ptr)
		if err != nil {
			return nil, err
		}
		elemType, err := ptrType.Deref()
		if err != nil {
			return nil, err
		}
		out := append(ptr, idx...)
		out = append(out, vm.FloatLit{Value: float64(a.vmType(elemType).Size)}, vm.Mul{})
		return append(out, vm.Add{}), nil

	case Call:
		args, err := a.assembleArgs(e.Args)
		if err != nil {
			return nil, err
		}
		return append(args, vm.Call{Name: e.Name}), nil

	case MethodCall:
		s := a.structs[e.StructName]
		recv, err := a.assembleExprSeq(e.Recv)
		if err != nil {
			return nil, err
		}
		args, err := a.assembleArgs(e.Args)
		if err != nil {
			return nil, err
		}
		out := append(recv, args...)
		return append(out, vm.Call{Name: s.Mangle(e.Method)}), nil

	case ForeignCall:
		args, err := a.assembleArgs(e.Args)
		if err != nil {
			return nil, err
		}
		return append(args, vm.ForeignCall{Name: e.Name}), nil

	case Binary:
		left, err := a.assembleExprSeq(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := a.assembleExprSeq(e.Right)
		if err != nil {
			return nil, err
		}
		op, err := binaryOpcode(e.Op)
		if err != nil {
			return nil, err
		}
		out := append(left, right...)
		return append(out, op), nil

	case Unary:
		inner, err := a.assembleExprSeq(e.Value)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "-":
			// -x lowers to (0 - x): the VM has no dedicated negate opcode.
			return append([]vm.Expression{vm.FloatLit{Value: 0}}, append(inner, vm.Sub{})...), nil
		case "!":
			// !x lowers to (1 - x): the VM has no dedicated not opcode.
			return append([]vm.Expression{vm.FloatLit{Value: 1}}, append(inner, vm.Sub{})...), nil
		default:
			return inner, nil
		}

	case Alloc:
		count, err := a.assembleExprSeq(e.Count)
		if err != nil {
			return nil, err
		}
		return append(count, vm.Alloc{}), nil

	case FreeExpr:
		inner, err := a.assembleExprSeq(e.Value)
		if err != nil {
			return nil, err
		}
		return append(inner, vm.Free{}), nil

	default:
		return nil, fmt.Errorf("unhandled mir expression %T", e)
	}
}

func (a *assembler) assembleArgs(args []Expression) ([]vm.Expression, error) {
	var out []vm.Expression
	for _, arg := range args {
		seq, err := a.assembleExprSeq(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, seq...)
	}
	return out, nil
}

// binaryOpcode maps the four arithmetic operators to their ASM opcode.
// Comparison operators (<, <=, ==, ...) have no dedicated VM instruction
// (original_source/src/asm.rs's AsmExpression has none either) and must
// already have been desugared into core-library calls by TIR (spec §3's
// macro/desugar stage), so they never reach this layer.
func binaryOpcode(op string) (vm.Expression, error) {
	switch op {
	case "+":
		return vm.Add{}, nil
	case "-":
		return vm.Sub{}, nil
	case "*":
		return vm.Mul{}, nil
	case "/":
		return vm.Div{}, nil
	default:
		return nil, fmt.Errorf("operator %q must be desugared to a core-library call before ASM lowering", op)
	}
}
