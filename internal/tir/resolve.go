package tir

// resolveMethodCalls fills in MethodCall.StructName by walking every
// function and method body with a small local-variable type environment,
// mirroring the static type inference original_source/src/tir.rs performs
// while lowering `recv.method(args)` (TirExpression::MethodCall) into a
// MIR-level call that already knows which structure's method table to
// dispatch through. The TIR-level grammar never asks the user to spell
// out a receiver's structure name, so this pass recovers it from the
// declared types of parameters, let-bindings, and member/function return
// types before the tree reaches mir.MethodCall, which requires StructName
// to already be resolved.
func resolveMethodCalls(decls []Declaration, structs map[string]Structure) error {
	funcs := map[string]Function{}
	for _, d := range decls {
		if fd, ok := d.(FuncDecl); ok {
			funcs[fd.Func.Name] = fd.Func
		}
	}

	for i, d := range decls {
		switch d := d.(type) {
		case FuncDecl:
			scope := paramScope(d.Func.Params)
			body, err := resolveStmts(d.Func.Body, scope, structs, funcs)
			if err != nil {
				return err
			}
			d.Func.Body = body
			decls[i] = d

		case StructDecl:
			for mi, m := range d.Struct.Methods {
				scope := paramScope(m.Params)
				body, err := resolveStmts(m.Body, scope, structs, funcs)
				if err != nil {
					return err
				}
				m.Body = body
				d.Struct.Methods[mi] = m
			}
			decls[i] = d
		}
	}
	return nil
}

func paramScope(params []Param) map[string]Type {
	scope := map[string]Type{}
	for _, p := range params {
		scope[p.Name] = p.Type
	}
	return scope
}

func resolveStmts(stmts []Statement, scope map[string]Type, structs map[string]Structure, funcs map[string]Function) ([]Statement, error) {
	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		r, err := resolveStmt(s, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func resolveStmt(s Statement, scope map[string]Type, structs map[string]Structure, funcs map[string]Function) (Statement, error) {
	switch s := s.(type) {
	case Define:
		init, initType, err := resolveExpr(s.Init, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Init = init
		declType := s.Type
		if declType == nil {
			declType = initType
		}
		scope[s.Name] = declType
		return s, nil

	case Assign:
		target, _, err := resolveExpr(s.Target, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		value, _, err := resolveExpr(s.Value, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Target, s.Value = target, value
		return s, nil

	case CompoundAssign:
		target, _, err := resolveExpr(s.Target, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		value, _, err := resolveExpr(s.Value, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Target, s.Value = target, value
		return s, nil

	case If:
		cond, _, err := resolveExpr(s.Cond, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		body, err := resolveStmts(s.Body, childScope(scope), structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Cond, s.Body = cond, body
		return s, nil

	case IfElseIf:
		cond, _, err := resolveExpr(s.Cond, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		thenBody, err := resolveStmts(s.ThenBody, childScope(scope), structs, funcs)
		if err != nil {
			return nil, err
		}
		var clauses []ElseIfClause
		for _, c := range s.ElseIfs {
			ccond, _, err := resolveExpr(c.Cond, scope, structs, funcs)
			if err != nil {
				return nil, err
			}
			cbody, err := resolveStmts(c.Body, childScope(scope), structs, funcs)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, ElseIfClause{Cond: ccond, Body: cbody})
		}
		elseBody, err := resolveStmts(s.ElseBody, childScope(scope), structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Cond, s.ThenBody, s.ElseIfs, s.ElseBody = cond, thenBody, clauses, elseBody
		return s, nil

	case While:
		cond, _, err := resolveExpr(s.Cond, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		body, err := resolveStmts(s.Body, childScope(scope), structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Cond, s.Body = cond, body
		return s, nil

	case For:
		loopScope := childScope(scope)
		var init Statement
		if s.Init != nil {
			r, err := resolveStmt(s.Init, loopScope, structs, funcs)
			if err != nil {
				return nil, err
			}
			init = r
		}
		cond, _, err := resolveExpr(s.Cond, loopScope, structs, funcs)
		if err != nil {
			return nil, err
		}
		var post Statement
		if s.Post != nil {
			r, err := resolveStmt(s.Post, loopScope, structs, funcs)
			if err != nil {
				return nil, err
			}
			post = r
		}
		body, err := resolveStmts(s.Body, loopScope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Init, s.Cond, s.Post, s.Body = init, cond, post, body
		return s, nil

	case RangeFor:
		low, _, err := resolveExpr(s.Low, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		high, _, err := resolveExpr(s.High, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		loopScope := childScope(scope)
		loopScope[s.Var] = TFloat{}
		body, err := resolveStmts(s.Body, loopScope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Low, s.High, s.Body = low, high, body
		return s, nil

	case Return:
		if s.Value == nil {
			return s, nil
		}
		value, _, err := resolveExpr(s.Value, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Value = value
		return s, nil

	case ExprStmt:
		value, _, err := resolveExpr(s.Value, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		s.Value = value
		return s, nil

	default:
		return s, nil
	}
}

func childScope(parent map[string]Type) map[string]Type {
	child := make(map[string]Type, len(parent))
	for k, v := range parent {
		child[k] = v
	}
	return child
}

// resolveExpr walks e, filling in StructName on every MethodCall it
// contains, and returns the (possibly rewritten) expression alongside its
// inferred static type so a caller one level up the tree (another
// MethodCall's Recv, or a Define's inferred type) can use it in turn.
// Inference failures are tolerated, not errors: a receiver whose type
// can't be determined (e.g. a foreign-call result) is left with an empty
// StructName, which mir's type checker will reject on its own terms with
// a clearer "unknown structure" diagnostic.
func resolveExpr(e Expression, scope map[string]Type, structs map[string]Structure, funcs map[string]Function) (Expression, Type, error) {
	switch e := e.(type) {
	case Var:
		return e, scope[e.Name], nil

	case MemberAccess:
		recv, recvType, err := resolveExpr(e.Recv, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Recv = recv
		memberType, _ := lookupMember(recvType, e.Name, structs)
		return e, memberType, nil

	case Call:
		args, err := resolveExprs(e.Args, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Args = args
		if f, ok := funcs[e.Name]; ok {
			return e, f.ReturnType, nil
		}
		return e, nil, nil

	case MethodCall:
		recv, recvType, err := resolveExpr(e.Recv, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Recv = recv
		if e.StructName == "" {
			if name, ok := structNameOf(recvType); ok {
				e.StructName = name
			}
		}
		args, err := resolveExprs(e.Args, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Args = args
		var retType Type
		if s, ok := structs[e.StructName]; ok {
			for _, m := range s.Methods {
				if m.Name == e.Method {
					retType = m.ReturnType
					break
				}
			}
		}
		return e, retType, nil

	case ForeignCall:
		args, err := resolveExprs(e.Args, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Args = args
		return e, nil, nil

	case Refer:
		value, valueType, err := resolveExpr(e.Value, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Value = value
		if valueType == nil {
			return e, nil, nil
		}
		return e, TPointer{Inner: valueType}, nil

	case Deref:
		value, valueType, err := resolveExpr(e.Value, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Value = value
		if ptr, ok := valueType.(TPointer); ok {
			return e, ptr.Inner, nil
		}
		return e, nil, nil

	case Binary:
		left, _, err := resolveExpr(e.Left, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		right, _, err := resolveExpr(e.Right, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Left, e.Right = left, right
		return e, TFloat{}, nil

	case Unary:
		value, valueType, err := resolveExpr(e.Value, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Value = value
		return e, valueType, nil

	case Alloc:
		count, _, err := resolveExpr(e.Count, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Count = count
		return e, nil, nil

	case Free:
		value, _, err := resolveExpr(e.Value, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Value = value
		return e, nil, nil

	case Index:
		ptr, ptrType, err := resolveExpr(e.Ptr, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		idx, _, err := resolveExpr(e.Idx, scope, structs, funcs)
		if err != nil {
			return nil, nil, err
		}
		e.Ptr, e.Idx = ptr, idx
		// Index(p, i) yields an address into p's array, so its type is
		// p's own (pointer) type, unchanged.
		return e, ptrType, nil

	default:
		return e, nil, nil
	}
}

func resolveExprs(exprs []Expression, scope map[string]Type, structs map[string]Structure, funcs map[string]Function) ([]Expression, error) {
	out := make([]Expression, len(exprs))
	for i, e := range exprs {
		r, _, err := resolveExpr(e, scope, structs, funcs)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// structNameOf unwraps any number of pointer layers looking for the
// structure name underneath, matching mir's checkExpr which resolves a
// MethodCall receiver's structure via recvType.DerefAll().
func structNameOf(t Type) (string, bool) {
	for {
		switch tt := t.(type) {
		case TStructure:
			return tt.Name, true
		case TPointer:
			t = tt.Inner
		default:
			return "", false
		}
	}
}

func lookupMember(t Type, name string, structs map[string]Structure) (Type, bool) {
	structName, ok := structNameOf(t)
	if !ok {
		return nil, false
	}
	s, ok := structs[structName]
	if !ok {
		return nil, false
	}
	for _, m := range s.Members {
		if m.Name == name {
			return m.Type, true
		}
	}
	return nil, false
}
