package vm

import "github.com/stackc-go/stackc/internal/target"

// slot records where a local variable lives and how large it is.
type slot struct {
	Address int
	Type    Type
}

// builder threads the two pieces of cross-function state that
// original_source/src/asm.rs passes as mutable function parameters:
// var_size (the next free statically-addressed cell) and funcIDs (the
// name -> numeric-ID map). Keeping them as fields here, rather than package
// globals, is the one required deviation from a literal port (spec §9).
type builder struct {
	target  target.Target
	funcIDs map[string]int
	varSize int
}

// Assemble lowers the whole ASM program into host-language source text for
// t, or returns an error if a reference cannot be resolved.
func (p Program) Assemble(t target.Target) (string, error) {
	b := &builder{target: t, funcIDs: make(map[string]int, len(p.Funcs))}

	for i, fn := range p.Funcs {
		b.funcIDs[fn.Name] = i
	}

	var headers, bodies string
	for i, fn := range p.Funcs {
		headers += t.FnHeader(assembledName(i))
		body, err := b.assembleFunction(fn)
		if err != nil {
			return "", err
		}
		bodies += t.FnDefinition(assembledName(i), body)
	}

	mainID, ok := b.funcIDs["main"]
	if !ok {
		return "", errNoEntryPoint()
	}
	entry := t.BeginEntryPoint(b.varSize, p.HeapSize) +
		t.CallFn(assembledName(mainID)) +
		t.EndEntryPoint()

	return headers + bodies + entry, nil
}

// assembleFunction assembles one function's body, defining each argument as
// a local in address order before compiling the statements (spec §4.2).
func (b *builder) assembleFunction(fn Function) (string, error) {
	vars := make(map[string]slot, len(fn.Args))

	var result string
	for _, arg := range fn.Args {
		defText, err := b.assembleStatement(Define{Name: arg.Name, Type: arg.Type}, vars)
		if err != nil {
			return "", err
		}
		assignText, err := b.assembleStatement(Assign{Type: arg.Type}, vars)
		if err != nil {
			return "", err
		}
		result += defText + assignText
	}

	for _, stmt := range fn.Body {
		text, err := b.assembleStatement(stmt, vars)
		if err != nil {
			return "", err
		}
		result += text
	}
	return result, nil
}

func (b *builder) assembleStatement(s Statement, vars map[string]slot) (string, error) {
	switch s := s.(type) {
	case Define:
		address := b.varSize
		vars[s.Name] = slot{Address: address, Type: s.Type}
		b.varSize += s.Type.GetSize()
		return b.target.Push(float64(address)), nil

	case Assign:
		return b.target.Store(s.Type.GetSize()), nil

	case For:
		var result string
		for _, stmt := range s.Pre {
			text, err := b.assembleStatement(stmt, vars)
			if err != nil {
				return "", err
			}
			result += text
		}
		condText, err := b.assembleExprs(s.Cond, vars)
		if err != nil {
			return "", err
		}
		result += condText
		result += b.target.BeginWhile()
		for _, stmt := range s.Body {
			text, err := b.assembleStatement(stmt, vars)
			if err != nil {
				return "", err
			}
			result += text
		}
		for _, stmt := range s.Post {
			text, err := b.assembleStatement(stmt, vars)
			if err != nil {
				return "", err
			}
			result += text
		}
		result += condText
		result += b.target.EndWhile()
		return result, nil

	case ExprStmt:
		return b.assembleExprs(s.Exprs, vars)

	default:
		return "", errFunctionNotDefined("<unknown statement>")
	}
}

func (b *builder) assembleExprs(exprs []Expression, vars map[string]slot) (string, error) {
	var result string
	for _, e := range exprs {
		text, err := b.assembleExpr(e, vars)
		if err != nil {
			return "", err
		}
		result += text
	}
	return result, nil
}

func (b *builder) assembleExpr(e Expression, vars map[string]slot) (string, error) {
	switch e := e.(type) {
	case StringLit:
		address := b.varSize
		size := len(e.Value) + 1
		var result string
		for i := 0; i < len(e.Value); i++ {
			result += b.target.Push(float64(e.Value[i]))
		}
		result += b.target.Push(0)
		result += b.target.Push(float64(address))
		result += b.target.Store(size)
		result += b.target.Push(float64(address))
		b.varSize += size
		return result, nil

	case CharLit:
		return b.target.Push(float64(e.Value)), nil

	case FloatLit:
		return b.target.Push(e.Value), nil

	case VoidExpr:
		return "", nil

	case Variable:
		v, ok := vars[e.Name]
		if !ok {
			return "", errVariableNotDefined(e.Name)
		}
		return b.target.Push(float64(v.Address)) + b.target.Load(v.Type.GetSize()), nil

	case Refer:
		v, ok := vars[e.Name]
		if !ok {
			return "", errVariableNotDefined(e.Name)
		}
		return b.target.Push(float64(v.Address)), nil

	case Deref:
		return b.target.Load(e.Size), nil

	case Call:
		id, ok := b.funcIDs[e.Name]
		if !ok {
			return "", errFunctionNotDefined(e.Name)
		}
		return b.target.CallFn(assembledName(id)), nil

	case ForeignCall:
		return b.target.CallForeignFn(e.Name), nil

	case Alloc:
		return b.target.Allocate(), nil

	case Free:
		return b.target.Free(), nil

	case Add:
		return b.target.Add(), nil

	case Sub:
		return b.target.Sub(), nil

	case Mul:
		return b.target.Mul(), nil

	case Div:
		return b.target.Div(), nil

	default:
		return "", errFunctionNotDefined("<unknown expression>")
	}
}
